// Package session owns the authenticated identity and keeps it
// mirrored in persisted storage, so a restart reconstructs the last
// known in-memory state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/pkg/enums"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/storage"
)

// State names the position in the identity lifecycle.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateRestoring      State = "restoring"
	StateAuthenticated  State = "authenticated"
)

// Identity is the authenticated user plus credential token. It is
// either fully present or fully absent: the store never holds a
// partial identity.
type Identity struct {
	UserID    int64          `json:"user_id"`
	Username  string         `json:"username"`
	Role      enums.UserRole `json:"user_type"`
	Token     string         `json:"token"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
}

func (id Identity) complete() bool {
	return id.UserID != 0 && id.Username != "" && id.Token != ""
}

// Hooks receives the store's user-facing side effects.
type Hooks interface {
	Notify(ctx context.Context, message string)
	NavigateTo(ctx context.Context, route string)
}

type authClient interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Me(ctx context.Context) (*api.User, error)
	Register(ctx context.Context, input api.RegisterInput) error
}

// StoreParams collects the collaborators of the session store.
type StoreParams struct {
	Auth    authClient
	Storage storage.Store
	Hooks   Hooks
	Logger  *logger.Logger
}

type Store struct {
	mu       sync.RWMutex
	state    State
	identity *Identity

	auth    authClient
	storage storage.Store
	hooks   Hooks
	log     *logger.Logger
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Auth == nil {
		return nil, errors.New("auth client required")
	}
	if params.Storage == nil {
		return nil, errors.New("storage required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	hooks := params.Hooks
	if hooks == nil {
		hooks = nopHooks{}
	}
	return &Store{
		state:   StateAnonymous,
		auth:    params.Auth,
		storage: params.Storage,
		hooks:   hooks,
		log:     params.Logger,
	}, nil
}

type nopHooks struct{}

func (nopHooks) Notify(context.Context, string)     {}
func (nopHooks) NavigateTo(context.Context, string) {}

// Login authenticates and adopts the resulting identity. The error is
// propagated untouched; the caller decides the feedback.
func (s *Store) Login(ctx context.Context, username, password string) (*Identity, error) {
	s.setState(StateAuthenticating)

	resp, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.setState(StateAnonymous)
		return nil, err
	}

	identity := Identity{
		UserID:   resp.UserID,
		Username: resp.Username,
		Role:     resp.UserType,
		Token:    resp.AccessToken,
	}
	s.adopt(ctx, identity)
	s.log.Info(s.log.WithUserID(ctx, identity.Username), "logged in")

	copied := identity
	return &copied, nil
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, input api.RegisterInput) error {
	return s.auth.Register(ctx, input)
}

// RestoreFromStorage rebuilds the identity at process start. A
// persisted identity blob is adopted without a network round trip; a
// dangling token triggers a profile fetch, and any failure purges the
// token so the store never ends up partially authenticated. It reports
// whether a session was restored.
func (s *Store) RestoreFromStorage(ctx context.Context) bool {
	if blob, err := s.storage.Get(ctx, storage.KeyUser); err == nil {
		var identity Identity
		if jsonErr := json.Unmarshal([]byte(blob), &identity); jsonErr == nil && identity.complete() {
			s.adopt(ctx, identity)
			s.log.Debug(ctx, "session restored from storage")
			return true
		}
		// Unparseable or partial blob: discard it and fall through to
		// the token path.
		_ = s.storage.Delete(ctx, storage.KeyUser)
	}

	token, err := s.storage.Get(ctx, storage.KeyAccessToken)
	if err != nil || token == "" {
		s.setState(StateAnonymous)
		return false
	}

	if tokenExpired(token) {
		s.log.Debug(ctx, "discarding expired token")
		s.purge(ctx)
		return false
	}

	s.setState(StateRestoring)
	user, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Warn(ctx, "token restore failed: "+err.Error())
		s.purge(ctx)
		return false
	}

	s.adopt(ctx, Identity{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.UserType,
		Token:     token,
		Email:     user.Email,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
	})
	s.log.Info(s.log.WithUserID(ctx, user.Username), "session restored from token")
	return true
}

// Logout clears the identity and navigates to the login view. Calling
// it while already anonymous is a no-op apart from the navigation.
func (s *Store) Logout(ctx context.Context) {
	wasAuthenticated := s.IsLoggedIn()
	s.purge(ctx)
	if wasAuthenticated {
		s.hooks.Notify(ctx, "logged out")
	}
	s.hooks.NavigateTo(ctx, "/login")
}

// Terminate force-ends the session after an unauthorized response:
// clear and redirect, but no notification of its own (the adapter
// already notified for the failed call).
func (s *Store) Terminate(ctx context.Context) {
	s.purge(ctx)
	s.hooks.NavigateTo(ctx, "/login")
}

// ProfileFields carries the optional identity fields UpdateProfile may
// merge. Nil fields are left untouched.
type ProfileFields struct {
	Username  *string
	Email     *string
	Phone     *string
	AvatarURL *string
}

// UpdateProfile merges fields into the identity and re-persists it. It
// is a no-op while anonymous.
func (s *Store) UpdateProfile(ctx context.Context, fields ProfileFields) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	if fields.Username != nil {
		s.identity.Username = *fields.Username
	}
	if fields.Email != nil {
		s.identity.Email = *fields.Email
	}
	if fields.Phone != nil {
		s.identity.Phone = *fields.Phone
	}
	if fields.AvatarURL != nil {
		s.identity.AvatarURL = *fields.AvatarURL
	}
	identity := *s.identity
	s.mu.Unlock()

	s.persist(ctx, identity)
}

// IsLoggedIn derives the logged-in status from identity presence.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Username
}

func (s *Store) Role() enums.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return enums.RoleCustomer
	}
	return s.identity.Role
}

// Token returns the in-memory credential, falling back to persisted
// storage the way the browser build falls back to localStorage.
func (s *Store) Token(ctx context.Context) string {
	s.mu.RLock()
	if s.identity != nil {
		token := s.identity.Token
		s.mu.RUnlock()
		return token
	}
	s.mu.RUnlock()

	token, err := s.storage.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// adopt installs the identity in memory and writes it through to
// storage in the same operation.
func (s *Store) adopt(ctx context.Context, identity Identity) {
	s.mu.Lock()
	copied := identity
	s.identity = &copied
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.persist(ctx, identity)
}

func (s *Store) persist(ctx context.Context, identity Identity) {
	blob, err := json.Marshal(identity)
	if err != nil {
		s.log.Error(ctx, "marshal identity", err)
		return
	}
	if err := s.storage.Set(ctx, storage.KeyUser, string(blob)); err != nil {
		s.log.Error(ctx, "persist identity", err)
	}
	if err := s.storage.Set(ctx, storage.KeyAccessToken, identity.Token); err != nil {
		s.log.Error(ctx, "persist token", err)
	}
}

func (s *Store) purge(ctx context.Context) {
	s.mu.Lock()
	s.identity = nil
	s.state = StateAnonymous
	s.mu.Unlock()

	_ = s.storage.Delete(ctx, storage.KeyUser)
	_ = s.storage.Delete(ctx, storage.KeyAccessToken)
}

// tokenExpired peeks at the JWT exp claim without verifying the
// signature; verification is the server's job. Tokens that do not
// parse as JWTs are given the benefit of the doubt.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return expiry.Before(time.Now())
}
