package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewTransportCarriesStatus(t *testing.T) {
	err := NewTransport(http.StatusNotFound, "resource not found")
	if err.Kind() != KindTransport {
		t.Fatalf("unexpected kind %s", err.Kind())
	}
	if err.Status() != http.StatusNotFound {
		t.Fatalf("unexpected status %d", err.Status())
	}
	if err.Error() != "TRANSPORT_ERROR (404): resource not found" {
		t.Fatalf("unexpected string %q", err.Error())
	}
}

func TestNewBusinessCarriesCode(t *testing.T) {
	err := NewBusiness(4001, "insufficient stock")
	if err.Kind() != KindBusiness {
		t.Fatalf("unexpected kind %s", err.Kind())
	}
	if err.Code() != 4001 {
		t.Fatalf("unexpected code %d", err.Code())
	}
	if err.Status() != 0 {
		t.Fatalf("business error should carry no status, got %d", err.Status())
	}
}

func TestAsUnwrapsChain(t *testing.T) {
	inner := Wrap(KindNetwork, errors.New("dial tcp: refused"), "network unreachable")
	wrapped := fmt.Errorf("fetch cart: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Kind() != KindNetwork {
		t.Fatalf("expected network error, got %v", typed)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatalf("expected errors.Is to match")
	}
	if typed.Unwrap() == nil {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(NewTransport(http.StatusUnauthorized, "session expired")) {
		t.Fatalf("expected unauthorized match")
	}
	if IsUnauthorized(NewTransport(http.StatusForbidden, "access denied")) {
		t.Fatalf("403 must not count as unauthorized")
	}
	if IsUnauthorized(errors.New("plain")) {
		t.Fatalf("plain error must not match")
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(New(KindRequest, "bad payload"), KindRequest) {
		t.Fatalf("expected request kind")
	}
	if IsKind(nil, KindRequest) {
		t.Fatalf("nil must not match")
	}
}
