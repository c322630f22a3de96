package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type account struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UserType int    `json:"user_type"`
	Password string `json:"-"`
}

type category struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
}

type product struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
	CategoryID    int64           `json:"category_id"`
}

type cartEntry struct {
	CartID      int64           `json:"cart_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type orderEntry struct {
	OrderID     int64           `json:"order_id"`
	Status      int             `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreateTime  string          `json:"create_time"`
	Items       []orderItem     `json:"items"`
}

type orderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type address struct {
	AddressID     int64  `json:"address_id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	DetailAddress string `json:"detail_address"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

type server struct {
	mu         sync.Mutex
	nextID     int64
	accounts   map[string]*account
	categories []category
	products   []product
	carts      map[int64][]cartEntry
	orders     map[int64][]orderEntry
	addresses  map[int64][]address

	signingKey []byte
	tokenTTL   time.Duration
}

func newServer(tokenTTL time.Duration) *server {
	return &server{
		nextID:     1,
		accounts:   map[string]*account{},
		carts:      map[int64][]cartEntry{},
		orders:     map[int64][]orderEntry{},
		addresses:  map[int64][]address{},
		signingKey: []byte("mock-signing-key"),
		tokenTTL:   tokenTTL,
	}
}

func (s *server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *server) addProduct(p product) {
	p.ProductID = s.id()
	s.products = append(s.products, p)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/products/", s.handleListProducts)
	r.Get("/products/categories", s.handleCategories)
	r.Get("/products/{id}", s.handleProductDetail)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", s.handleMe)
		r.Put("/auth/profile", s.handleUpdateProfile)

		r.Get("/cart/", s.handleGetCart)
		r.Post("/cart/add", s.handleAddToCart)
		r.Put("/cart/{id}", s.handleUpdateCartQuantity)
		r.Delete("/cart/batch", s.handleBatchRemove)
		r.Delete("/cart/{id}", s.handleRemoveFromCart)
		r.Delete("/cart/", s.handleClearCart)

		r.Get("/orders/", s.handleListOrders)
		r.Post("/orders/", s.handleCreateOrder)
		r.Get("/orders/{id}", s.handleOrderDetail)
		r.Post("/orders/{id}/pay", s.handlePayOrder)
		r.Delete("/orders/{id}", s.handleCancelOrder)

		r.Get("/user/addresses", s.handleListAddresses)
		r.Post("/user/addresses", s.handleAddAddress)
		r.Put("/user/addresses/{id}/default", s.handleSetDefaultAddress)
		r.Put("/user/addresses/{id}", s.handleUpdateAddress)
		r.Delete("/user/addresses/{id}", s.handleDeleteAddress)
	})

	return r
}

// --- envelope helpers ---

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "success", "data": data})
}

func writeBusinessError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

// --- auth ---

type ctxUserKey struct{}

func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.signingKey, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		sub, _ := claims.GetSubject()
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, userID)))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserKey{}).(int64)
	return id
}

func (s *server) issueToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": time.Now().Add(s.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *server) accountByID(id int64) *account {
	for _, acct := range s.accounts {
		if acct.UserID == id {
			return acct
		}
	}
	return nil
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		UserType int    `json:"user_type"`
	}
	if !decode(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[input.Username]; exists {
		writeBusinessError(w, 4001, "username already taken")
		return
	}
	acct := &account{
		UserID:   s.id(),
		Username: input.Username,
		Email:    input.Email,
		Phone:    input.Phone,
		UserType: input.UserType,
		Password: input.Password,
	}
	s.accounts[input.Username] = acct
	writeEnvelope(w, acct)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &input) {
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[input.Username]
	s.mu.Unlock()
	if !ok || acct.Password != input.Password {
		writeDetail(w, http.StatusBadRequest, "incorrect username or password")
		return
	}

	token, err := s.issueToken(acct.UserID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "signing token")
		return
	}
	// The login payload is a bare object, not an envelope.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user_id":      acct.UserID,
		"username":     acct.Username,
		"user_type":    acct.UserType,
	})
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acct := s.accountByID(userID(r))
	s.mu.Unlock()
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "account not found")
		return
	}
	writeEnvelope(w, acct)
}

func (s *server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	if !decode(w, r, &input) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByID(userID(r))
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "account not found")
		return
	}
	if input.Email != nil {
		acct.Email = *input.Email
	}
	if input.Phone != nil {
		acct.Phone = *input.Phone
	}
	writeEnvelope(w, acct)
}

// --- catalog ---

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = 12
	}
	keyword := strings.ToLower(r.URL.Query().Get("keyword"))
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)

	s.mu.Lock()
	var matched []product
	for _, p := range s.products {
		if keyword != "" && !strings.Contains(strings.ToLower(p.ProductName), keyword) {
			continue
		}
		if categoryID > 0 && p.CategoryID != categoryID {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	writeEnvelope(w, map[string]any{
		"items":       matched[start:end],
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}

func (s *server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ProductID == id {
			writeEnvelope(w, p)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "product not found")
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeEnvelope(w, s.categories)
}

// --- cart ---

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID(r)]
	if items == nil {
		items = []cartEntry{}
	}
	writeEnvelope(w, map[string]any{"items": items})
}

func (s *server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if !decode(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found *product
	for i := range s.products {
		if s.products[i].ProductID == input.ProductID {
			found = &s.products[i]
			break
		}
	}
	if found == nil {
		writeDetail(w, http.StatusNotFound, "product not found")
		return
	}

	uid := userID(r)
	for i, entry := range s.carts[uid] {
		if entry.ProductID == input.ProductID {
			if entry.Quantity+input.Quantity > found.StockQuantity {
				writeBusinessError(w, 4002, "insufficient stock")
				return
			}
			s.carts[uid][i].Quantity += input.Quantity
			writeEnvelope(w, nil)
			return
		}
	}
	if input.Quantity > found.StockQuantity {
		writeBusinessError(w, 4002, "insufficient stock")
		return
	}
	s.carts[uid] = append(s.carts[uid], cartEntry{
		CartID:      s.id(),
		ProductID:   found.ProductID,
		ProductName: found.ProductName,
		Price:       found.Price,
		Quantity:    input.Quantity,
	})
	writeEnvelope(w, nil)
}

func (s *server) handleUpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &input) {
		return
	}
	if input.Quantity < 1 {
		writeDetail(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	for i, entry := range s.carts[uid] {
		if entry.ProductID == id {
			s.carts[uid][i].Quantity = input.Quantity
			writeEnvelope(w, nil)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "cart item not found")
}

func (s *server) removeCartProducts(uid int64, ids ...int64) {
	drop := map[int64]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var kept []cartEntry
	for _, entry := range s.carts[uid] {
		if !drop[entry.ProductID] {
			kept = append(kept, entry)
		}
	}
	s.carts[uid] = kept
}

func (s *server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCartProducts(userID(r), pathID(r))
	writeEnvelope(w, nil)
}

func (s *server) handleBatchRemove(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if !decode(w, r, &ids) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCartProducts(userID(r), ids...)
	writeEnvelope(w, nil)
}

func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID(r))
	writeEnvelope(w, nil)
}

// --- orders ---

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.orders[userID(r)]
	if orders == nil {
		orders = []orderEntry{}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID > orders[j].OrderID })
	writeEnvelope(w, map[string]any{
		"items":     orders,
		"total":     len(orders),
		"page":      1,
		"page_size": len(orders),
	})
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Items []struct {
			CartID    int64 `json:"cart_id"`
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
		AddressID int64  `json:"address_id"`
		Remark    string `json:"remark"`
	}
	if !decode(w, r, &input) {
		return
	}
	if len(input.Items) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "items must not be empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(r)
	total := decimal.Zero
	var items []orderItem
	for _, requested := range input.Items {
		for _, entry := range s.carts[uid] {
			if entry.ProductID == requested.ProductID {
				items = append(items, orderItem{
					ProductID:   entry.ProductID,
					ProductName: entry.ProductName,
					Price:       entry.Price,
					Quantity:    requested.Quantity,
				})
				total = total.Add(entry.Price.Mul(decimal.NewFromInt(int64(requested.Quantity))))
			}
		}
	}
	if len(items) == 0 {
		writeBusinessError(w, 4003, "no matching cart items")
		return
	}

	order := orderEntry{
		OrderID:     s.id(),
		Status:      0,
		TotalAmount: total,
		CreateTime:  time.Now().Format(time.RFC3339),
		Items:       items,
	}
	s.orders[uid] = append(s.orders[uid], order)
	writeEnvelope(w, order)
}

func (s *server) findOrder(uid, orderID int64) *orderEntry {
	for i := range s.orders[uid] {
		if s.orders[uid][i].OrderID == orderID {
			return &s.orders[uid][i]
		}
	}
	return nil
}

func (s *server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findOrder(userID(r), pathID(r))
	if order == nil {
		writeDetail(w, http.StatusNotFound, "order not found")
		return
	}
	writeEnvelope(w, order)
}

func (s *server) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findOrder(userID(r), pathID(r))
	if order == nil {
		writeDetail(w, http.StatusNotFound, "order not found")
		return
	}
	if order.Status != 0 {
		writeBusinessError(w, 4004, "order is not awaiting payment")
		return
	}
	order.Status = 1
	writeEnvelope(w, order)
}

func (s *server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findOrder(userID(r), pathID(r))
	if order == nil {
		writeDetail(w, http.StatusNotFound, "order not found")
		return
	}
	if order.Status > 1 {
		writeBusinessError(w, 4005, "order can no longer be cancelled")
		return
	}
	order.Status = 4
	writeEnvelope(w, order)
}

// --- addresses ---

func (s *server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addresses := s.addresses[userID(r)]
	if addresses == nil {
		addresses = []address{}
	}
	writeEnvelope(w, addresses)
}

func (s *server) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var input address
	if !decode(w, r, &input) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	input.AddressID = s.id()
	if input.IsDefault {
		for i := range s.addresses[uid] {
			s.addresses[uid][i].IsDefault = false
		}
	}
	s.addresses[uid] = append(s.addresses[uid], input)
	writeEnvelope(w, input)
}

func (s *server) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var input address
	if !decode(w, r, &input) {
		return
	}
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	for i := range s.addresses[uid] {
		if s.addresses[uid][i].AddressID == id {
			input.AddressID = id
			s.addresses[uid][i] = input
			writeEnvelope(w, input)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "address not found")
}

func (s *server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	var kept []address
	for _, addr := range s.addresses[uid] {
		if addr.AddressID != id {
			kept = append(kept, addr)
		}
	}
	s.addresses[uid] = kept
	writeEnvelope(w, nil)
}

func (s *server) handleSetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := userID(r)
	found := false
	for i := range s.addresses[uid] {
		s.addresses[uid][i].IsDefault = s.addresses[uid][i].AddressID == id
		if s.addresses[uid][i].IsDefault {
			found = true
		}
	}
	if !found {
		writeDetail(w, http.StatusNotFound, "address not found")
		return
	}
	writeEnvelope(w, nil)
}
