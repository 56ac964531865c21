package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"shyness-client/internal/models"
)

// AuthService wraps the /auth endpoints of the user realm
type AuthService struct {
	client *Client
}

// NewAuthService creates a new auth service
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

type authPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges credentials for a token and the user
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var out authPayload
	body := map[string]string{"email": email, "password": password}
	if _, err := s.client.sendJSON(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, fmt.Errorf("login response missing token or user")
	}
	return out.Token, out.User, nil
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	var out authPayload
	body := map[string]string{"name": name, "email": email, "password": password}
	if _, err := s.client.sendJSON(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, fmt.Errorf("signup response missing token or user")
	}
	return out.Token, out.User, nil
}

// Me returns the user the stored token belongs to
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := s.client.getJSON(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("auth check returned no user")
	}
	return out.User, nil
}

// UpdateProfile renames the user and returns the canonical object
func (s *AuthService) UpdateProfile(ctx context.Context, name string) (*models.User, error) {
	env, err := s.client.sendJSON(ctx, http.MethodPut, "/auth/profile", map[string]string{"name": name}, nil)
	if err != nil {
		return nil, err
	}
	return userFromEnvelope(env)
}

// ForgotPassword asks the backend to mail a reset link
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, err := s.client.sendJSON(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPassword sets a new password using a mailed reset token
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	body := map[string]string{"token": token, "password": password}
	env, err := s.client.sendJSON(ctx, http.MethodPut, "/auth/reset-password", body, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// userFromEnvelope accepts both {user: ...} and {data: {user: ...}}
func userFromEnvelope(env *envelope) (*models.User, error) {
	if len(env.User) > 0 && string(env.User) != "null" {
		var u models.User
		if err := json.Unmarshal(env.User, &u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		return &u, nil
	}
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := decodeData(env, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.User == nil {
		return nil, fmt.Errorf("response carried no user")
	}
	return wrapped.User, nil
}

// AdminAuthService wraps the /admin/auth endpoints
type AdminAuthService struct {
	client *Client
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(client *Client) *AdminAuthService {
	return &AdminAuthService{client: client}
}

// Login exchanges admin credentials for a token and the admin identity
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, *models.Admin, error) {
	var out struct {
		Token string        `json:"token"`
		Admin *models.Admin `json:"admin"`
	}
	body := map[string]string{"email": email, "password": password}
	if _, err := s.client.sendJSON(ctx, http.MethodPost, "/admin/auth/login", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.Admin == nil {
		return "", nil, fmt.Errorf("admin login response missing token or admin")
	}
	return out.Token, out.Admin, nil
}

// Me validates the admin token
func (s *AdminAuthService) Me(ctx context.Context) (*models.Admin, error) {
	var out struct {
		Admin *models.Admin `json:"admin"`
	}
	if err := s.client.getJSON(ctx, "/admin/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.Admin == nil {
		return nil, fmt.Errorf("admin check returned no admin")
	}
	return out.Admin, nil
}

// UpdateProfile changes the admin's display fields
func (s *AdminAuthService) UpdateProfile(ctx context.Context, name, email string) (*models.Admin, error) {
	var out struct {
		Admin *models.Admin `json:"admin"`
	}
	body := map[string]string{"name": name, "email": email}
	if _, err := s.client.sendJSON(ctx, http.MethodPut, "/admin/auth/profile", body, &out); err != nil {
		return nil, err
	}
	return out.Admin, nil
}

// ChangePassword rotates the admin password
func (s *AdminAuthService) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	_, err := s.client.sendJSON(ctx, http.MethodPut, "/admin/auth/password", body, nil)
	return err
}
