package api

import (
	"context"

	"github.com/felixgeelhaar/oactl/internal/session"
)

// AuthAPI wraps officeAuth/.
type AuthAPI struct {
	t Transport
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Message string       `json:"message"`
	User    session.User `json:"user"`
	Token   string       `json:"token"`
}

// Login exchanges credentials for a user record and token.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := a.t.Post(ctx, "/officeAuth/login/", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, withDetail(err, nil)
	}

	var out LoginResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword changes the current user's password.
func (a *AuthAPI) ResetPassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	_, err := a.t.Post(ctx, "/officeAuth/reset-password/", map[string]string{
		"old_password":     oldPassword,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}, nil)
	if err != nil {
		return withDetail(err, passwordLabels)
	}
	return nil
}

// RefreshResult carries a renewed token.
type RefreshResult struct {
	Token      string `json:"token"`
	ExpireTime int64  `json:"expire_time"`
}

// RefreshToken trades a still-valid token for one with a later expiry.
func (a *AuthAPI) RefreshToken(ctx context.Context, token string) (*RefreshResult, error) {
	resp, err := a.t.Post(ctx, "/officeAuth/refresh-token/", map[string]string{"token": token}, nil)
	if err != nil {
		return nil, withDetail(err, nil)
	}
	var out RefreshResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserDetail fetches the current user's record.
func (a *AuthAPI) UserDetail(ctx context.Context) (session.User, error) {
	resp, err := a.t.Get(ctx, "/officeAuth/user/detail/", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		User session.User `json:"user"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.User == nil {
		out.User = session.User{}
	}
	return out.User, nil
}
