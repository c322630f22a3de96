package api

import (
	"context"

	"github.com/lumenmarket/storefront-client/pkg/enums"
)

type AuthAPI struct {
	client Doer
}

func NewAuthAPI(client Doer) *AuthAPI {
	return &AuthAPI{client: client}
}

// LoginResponse mirrors the backend login payload.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	UserID      int64          `json:"user_id"`
	Username    string         `json:"username"`
	UserType    enums.UserRole `json:"user_type"`
}

// User mirrors the /auth/me payload.
type User struct {
	UserID    int64          `json:"user_id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	UserType  enums.UserRole `json:"user_type"`
	AvatarURL string         `json:"avatar_url"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *AuthAPI) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.client.Post(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type RegisterInput struct {
	Username string         `json:"username" validate:"required,min=3,max=50"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Phone    string         `json:"phone,omitempty"`
	UserType enums.UserRole `json:"user_type"`
}

func (a *AuthAPI) Register(ctx context.Context, input RegisterInput) error {
	if err := checkInput(input); err != nil {
		return err
	}
	return a.client.Post(ctx, "/auth/register", input, nil)
}

// Me fetches the identity the current bearer token belongs to.
func (a *AuthAPI) Me(ctx context.Context) (*User, error) {
	var user User
	if err := a.client.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type ProfileUpdateInput struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, input ProfileUpdateInput) error {
	if err := checkInput(input); err != nil {
		return err
	}
	return a.client.Put(ctx, "/auth/profile", input, nil)
}
