package viewmodel

import (
	"context"

	"github.com/felixgeelhaar/oactl/internal/session"
)

// Username is the display name of a user, or "user" when none is set.
func Username(u session.User) string {
	if name := u.Name(); name != "" {
		return name
	}
	return "user"
}

// PasswordForm is the change-password dialog.
type PasswordForm struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// Validate applies the dialog's rules: every field 6 to 20 characters and the
// confirmation equal to the new password.
func (f PasswordForm) Validate() error {
	if f.OldPassword == "" || f.NewPassword == "" || f.ConfirmPassword == "" {
		return validation("please fill in all fields")
	}
	for _, p := range []string{f.OldPassword, f.NewPassword, f.ConfirmPassword} {
		if n := len([]rune(p)); n < 6 || n > 20 {
			return validation("passwords must be 6 to 20 characters")
		}
	}
	if f.NewPassword != f.ConfirmPassword {
		return validation("the two passwords do not match")
	}
	return nil
}

// PasswordChanger is the part of api.AuthAPI the frame uses.
type PasswordChanger interface {
	ResetPassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error
}

// Frame is the chrome around every signed-in page: the user menu, password
// change and logout.
type Frame struct {
	auth     PasswordChanger
	session  SessionStore
	notifier Notifier
	nav      Navigator
}

// NewFrame creates the frame view model.
func NewFrame(auth PasswordChanger, store SessionStore, notifier Notifier, nav Navigator) *Frame {
	return &Frame{auth: auth, session: store, notifier: notifier, nav: nav}
}

// User returns the signed-in user.
func (f *Frame) User() session.User {
	return f.session.User()
}

// Username is the signed-in user's display name.
func (f *Frame) Username() string {
	return Username(f.session.User())
}

// ChangePassword validates and submits the form.
func (f *Frame) ChangePassword(ctx context.Context, form PasswordForm) error {
	if err := form.Validate(); err != nil {
		f.notifier.Error(err.Error())
		return err
	}
	if err := f.auth.ResetPassword(ctx, form.OldPassword, form.NewPassword, form.ConfirmPassword); err != nil {
		if !quiet(err) {
			f.notifier.Error(messageOr(err, "failed to change password"))
		}
		return err
	}
	f.notifier.Success("password changed")
	return nil
}

// Logout clears the session and returns to the sign-in page.
func (f *Frame) Logout() error {
	err := f.session.Clear()
	f.nav.Push(RouteLogin)
	return err
}
