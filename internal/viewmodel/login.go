package viewmodel

import (
	"context"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/session"
)

// Routes the view models navigate to.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePassword checks the login password rules.
func ValidatePassword(password string) error {
	if password == "" {
		return validation("please enter your password")
	}
	if len([]rune(password)) < 6 {
		return validation("password must be at least 6 characters")
	}
	return nil
}

// Authenticator is the part of api.AuthAPI the login page uses.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
}

// Login is the sign-in page.
type Login struct {
	auth     Authenticator
	session  SessionStore
	notifier Notifier
	nav      Navigator
}

// NewLogin creates the sign-in view model.
func NewLogin(auth Authenticator, store SessionStore, notifier Notifier, nav Navigator) *Login {
	return &Login{auth: auth, session: store, notifier: notifier, nav: nav}
}

// Submit validates the credentials, signs in and stores the session. On
// success it navigates home.
func (l *Login) Submit(ctx context.Context, email, password string) (session.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validation("please enter your email")
	}
	if !ValidEmail(email) {
		return nil, validation("please enter a valid email address")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	res, err := l.auth.Login(ctx, email, password)
	if err != nil {
		if !quiet(err) {
			l.notifier.Error(messageOr(err, "login failed, please try again later"))
		}
		return nil, err
	}

	user := res.User
	if user == nil {
		user = session.User{}
	}
	if err := l.session.Set(user, res.Token); err != nil {
		l.notifier.Error("failed to save session")
		return nil, err
	}

	l.notifier.Success("logged in as " + Username(user))
	l.nav.Push(RouteHome)
	return user, nil
}
