// Package main implements a mock storefront backend for development
// and e2e testing. It serves the {code,message,data} envelope API from
// in-memory state, so the client can be exercised without a real
// backend: fast, deterministic, and offline-capable.
//
// Usage:
//
//	mockapi -port 8000
//
// Accounts are created through /api/auth/register; the catalog is
// seeded at startup.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

func main() {
	port := flag.Int("port", 8000, "listen port")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "access token lifetime")
	flag.Parse()

	srv := newServer(*tokenTTL)
	srv.seedCatalog()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api", srv.routes())

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock storefront backend listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func (s *server) seedCatalog() {
	s.categories = []category{
		{CategoryID: 1, CategoryName: "Drinkware"},
		{CategoryID: 2, CategoryName: "Stationery"},
	}
	s.addProduct(product{ProductName: "Enamel Mug", Description: "350ml enamel camping mug", Price: price("19.90"), StockQuantity: 42, CategoryID: 1})
	s.addProduct(product{ProductName: "Glass Tumbler", Description: "Double-walled 250ml tumbler", Price: price("24.50"), StockQuantity: 17, CategoryID: 1})
	s.addProduct(product{ProductName: "Field Notebook", Description: "A6 dotted notebook, 96 pages", Price: price("8.00"), StockQuantity: 120, CategoryID: 2})
	s.addProduct(product{ProductName: "Brass Pen", Description: "Machined brass ballpoint", Price: price("32.00"), StockQuantity: 9, CategoryID: 2})
}
