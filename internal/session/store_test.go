package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/pkg/apierrors"
	"github.com/lumenmarket/storefront-client/pkg/enums"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/storage"
	"github.com/rs/zerolog"
)

type stubAuth struct {
	loginResp *api.LoginResponse
	loginErr  error
	meResp    *api.User
	meErr     error
	meCalls   int
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResp, nil
}

func (s *stubAuth) Me(ctx context.Context) (*api.User, error) {
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	return s.meResp, nil
}

func (s *stubAuth) Register(ctx context.Context, input api.RegisterInput) error {
	return nil
}

type recordingHooks struct {
	messages []string
	routes   []string
}

func (h *recordingHooks) Notify(_ context.Context, message string) {
	h.messages = append(h.messages, message)
}

func (h *recordingHooks) NavigateTo(_ context.Context, route string) {
	h.routes = append(h.routes, route)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard, Level: zerolog.Disabled})
}

func newTestStore(t *testing.T, auth authClient, store storage.Store, hooks Hooks) *Store {
	t.Helper()
	s, err := NewStore(StoreParams{Auth: auth, Storage: store, Hooks: hooks, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestLoginAdoptsIdentityAndMirrorsStorage(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{loginResp: &api.LoginResponse{
		AccessToken: "abc",
		UserID:      1,
		Username:    "alice",
		UserType:    enums.RoleCustomer,
	}}
	persisted := storage.NewMemory()
	store := newTestStore(t, auth, persisted, nil)

	identity, err := store.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if identity.UserID != 1 || identity.Username != "alice" || identity.Token != "abc" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if !store.IsLoggedIn() || store.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %s", store.State())
	}

	token, err := persisted.Get(ctx, storage.KeyAccessToken)
	if err != nil || token != "abc" {
		t.Fatalf("expected persisted token, got %q (%v)", token, err)
	}
	blob, err := persisted.Get(ctx, storage.KeyUser)
	if err != nil {
		t.Fatalf("expected persisted identity: %v", err)
	}
	var mirrored Identity
	if err := json.Unmarshal([]byte(blob), &mirrored); err != nil {
		t.Fatalf("decode mirrored identity: %v", err)
	}
	if mirrored != *store.Identity() {
		t.Fatalf("storage does not mirror memory: %+v vs %+v", mirrored, store.Identity())
	}
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	auth := &stubAuth{loginErr: apierrors.NewTransport(400, "invalid credentials")}
	store := newTestStore(t, auth, storage.NewMemory(), nil)

	_, err := store.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatalf("expected error")
	}
	if store.IsLoggedIn() || store.State() != StateAnonymous {
		t.Fatalf("expected anonymous state after failed login")
	}
}

func TestRestoreFromPersistedBlobSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{}
	persisted := storage.NewMemory()
	blob, _ := json.Marshal(Identity{UserID: 1, Username: "alice", Role: enums.RoleCustomer, Token: "abc"})
	persisted.Set(ctx, storage.KeyUser, string(blob))
	persisted.Set(ctx, storage.KeyAccessToken, "abc")

	store := newTestStore(t, auth, persisted, nil)
	if !store.RestoreFromStorage(ctx) {
		t.Fatalf("expected restore to succeed")
	}
	if auth.meCalls != 0 {
		t.Fatalf("expected no network call, got %d", auth.meCalls)
	}
	if store.Username() != "alice" {
		t.Fatalf("unexpected identity %+v", store.Identity())
	}
}

func TestRestoreWithDanglingTokenFetchesProfile(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{meResp: &api.User{UserID: 1, Username: "alice", UserType: enums.RoleCustomer, Email: "alice@example.com"}}
	persisted := storage.NewMemory()
	persisted.Set(ctx, storage.KeyAccessToken, "abc")

	store := newTestStore(t, auth, persisted, nil)
	if !store.RestoreFromStorage(ctx) {
		t.Fatalf("expected restore to succeed")
	}
	if auth.meCalls != 1 {
		t.Fatalf("expected exactly one profile fetch, got %d", auth.meCalls)
	}
	identity := store.Identity()
	if identity == nil || identity.Token != "abc" || identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if blob, err := persisted.Get(ctx, storage.KeyUser); err != nil || blob == "" {
		t.Fatalf("expected merged identity to be persisted (%v)", err)
	}
}

func TestRestoreFailurePurgesToken(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{meErr: apierrors.NewTransport(401, "session expired, please log in again")}
	persisted := storage.NewMemory()
	persisted.Set(ctx, storage.KeyAccessToken, "stale")

	store := newTestStore(t, auth, persisted, nil)
	if store.RestoreFromStorage(ctx) {
		t.Fatalf("expected restore to fail")
	}
	if store.IsLoggedIn() {
		t.Fatalf("expected anonymous state")
	}
	if _, err := persisted.Get(ctx, storage.KeyAccessToken); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected token to be purged, got %v", err)
	}
}

func TestRestoreDiscardsExpiredTokenWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	auth := &stubAuth{meResp: &api.User{UserID: 1, Username: "alice"}}
	persisted := storage.NewMemory()
	persisted.Set(ctx, storage.KeyAccessToken, signed)

	store := newTestStore(t, auth, persisted, nil)
	if store.RestoreFromStorage(ctx) {
		t.Fatalf("expected restore to fail for expired token")
	}
	if auth.meCalls != 0 {
		t.Fatalf("expired token must not reach the network, got %d calls", auth.meCalls)
	}
	if _, err := persisted.Get(ctx, storage.KeyAccessToken); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected token purge, got %v", err)
	}
}

func TestRestoreDiscardsCorruptBlob(t *testing.T) {
	ctx := context.Background()
	persisted := storage.NewMemory()
	persisted.Set(ctx, storage.KeyUser, "{not json")

	store := newTestStore(t, &stubAuth{}, persisted, nil)
	if store.RestoreFromStorage(ctx) {
		t.Fatalf("expected restore to fail")
	}
	if _, err := persisted.Get(ctx, storage.KeyUser); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected corrupt blob removal, got %v", err)
	}
}

func TestLogoutClearsAndNavigates(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{loginResp: &api.LoginResponse{AccessToken: "abc", UserID: 1, Username: "alice"}}
	persisted := storage.NewMemory()
	hooks := &recordingHooks{}
	store := newTestStore(t, auth, persisted, hooks)

	if _, err := store.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	store.Logout(ctx)

	if store.IsLoggedIn() {
		t.Fatalf("expected anonymous after logout")
	}
	if _, err := persisted.Get(ctx, storage.KeyAccessToken); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected token removal, got %v", err)
	}
	if len(hooks.messages) != 1 || hooks.messages[0] != "logged out" {
		t.Fatalf("expected logout notification, got %v", hooks.messages)
	}
	if len(hooks.routes) != 1 || hooks.routes[0] != "/login" {
		t.Fatalf("expected navigation to /login, got %v", hooks.routes)
	}

	// Idempotent: a second logout only navigates.
	store.Logout(ctx)
	if len(hooks.messages) != 1 {
		t.Fatalf("second logout must not notify, got %v", hooks.messages)
	}
	if len(hooks.routes) != 2 {
		t.Fatalf("second logout should still navigate, got %v", hooks.routes)
	}
}

func TestTerminateSkipsNotification(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{loginResp: &api.LoginResponse{AccessToken: "abc", UserID: 1, Username: "alice"}}
	hooks := &recordingHooks{}
	store := newTestStore(t, auth, storage.NewMemory(), hooks)

	if _, err := store.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	store.Terminate(ctx)

	if store.IsLoggedIn() {
		t.Fatalf("expected anonymous after terminate")
	}
	if len(hooks.messages) != 0 {
		t.Fatalf("terminate must not notify, got %v", hooks.messages)
	}
	if len(hooks.routes) != 1 || hooks.routes[0] != "/login" {
		t.Fatalf("expected navigation to /login, got %v", hooks.routes)
	}
}

func TestUpdateProfileMergesAndPersists(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{loginResp: &api.LoginResponse{AccessToken: "abc", UserID: 1, Username: "alice"}}
	persisted := storage.NewMemory()
	store := newTestStore(t, auth, persisted, nil)

	if _, err := store.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	email := "alice@example.com"
	store.UpdateProfile(ctx, ProfileFields{Email: &email})

	identity := store.Identity()
	if identity.Email != email {
		t.Fatalf("expected merged email, got %+v", identity)
	}
	blob, _ := persisted.Get(ctx, storage.KeyUser)
	var mirrored Identity
	if err := json.Unmarshal([]byte(blob), &mirrored); err != nil || mirrored.Email != email {
		t.Fatalf("expected re-persisted identity, got %q (%v)", blob, err)
	}
}

func TestUpdateProfileAnonymousIsNoOp(t *testing.T) {
	store := newTestStore(t, &stubAuth{}, storage.NewMemory(), nil)
	email := "alice@example.com"
	store.UpdateProfile(context.Background(), ProfileFields{Email: &email})
	if store.IsLoggedIn() {
		t.Fatalf("no-op must not create identity")
	}
}
