// ABOUTME: Authentication endpoints: login, register, me, logout, change password
// ABOUTME: Successful login and register store the token and user on the client session
package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type AuthService struct {
	c *Client
}

type authResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) authenticate(ctx context.Context, endpoint string, body map[string]string) (*models.User, error) {
	var res authResult
	if err := s.c.post(ctx, endpoint, body).Decode(&res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("failed to authenticate: no token in response")
	}
	if err := s.c.session.Set(res.Token, res.User); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	values := map[string]string{"email": strings.TrimSpace(email), "password": password}
	if errs := validate.LoginForm.Validate(values); errs != nil {
		return nil, errs
	}
	return s.authenticate(ctx, "/auth/login", values)
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	values := map[string]string{"name": strings.TrimSpace(name), "email": strings.TrimSpace(email), "password": password}
	if errs := validate.RegisterForm.Validate(values); errs != nil {
		return nil, errs
	}
	return s.authenticate(ctx, "/auth/register", values)
}

// Me refreshes the cached user from the backend.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	if !s.c.session.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	user, err := decodeOne[models.User](s.c.get(ctx, "/auth/me", nil), "user")
	if err != nil {
		return nil, err
	}
	if err := s.c.session.SetUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout tells the backend and always clears the local session, even when the
// backend call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	var remote error
	if s.c.session.LoggedIn() {
		remote = s.c.post(ctx, "/auth/logout", nil).Err()
	}
	if err := s.c.session.Clear(); err != nil {
		return err
	}
	if remote != nil && !IsUnauthorized(remote) {
		return remote
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	values := map[string]string{"currentPassword": current, "newPassword": next}
	if errs := validate.PasswordChangeForm.Validate(values); errs != nil {
		return errs
	}
	return s.c.post(ctx, "/auth/change-password", values).Err()
}
