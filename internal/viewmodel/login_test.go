package viewmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oactl/internal/api"
	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/session"
)

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"a@b.io", "first.last@mail.example.com", "x-y_z@corp-1.cn"} {
		assert.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "plain", "a@b", "a@b.toolongtld", "a b@c.io"} {
		assert.False(t, ValidEmail(bad), bad)
	}
}

func TestLoginSubmit(t *testing.T) {
	auth := &fakeAuth{result: &api.LoginResult{Token: "tok", User: session.User{"username": "ann"}}}
	store := &fakeSession{}
	notifier := &fakeNotifier{}
	nav := &fakeNav{}
	vm := NewLogin(auth, store, notifier, nav)

	user, err := vm.Submit(context.Background(), " ann@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Name())
	assert.Equal(t, "tok", store.token)
	assert.Equal(t, []string{RouteHome}, nav.paths)
	assert.Equal(t, []string{"logged in as ann"}, notifier.messages("success"))
}

func TestLoginValidation(t *testing.T) {
	auth := &fakeAuth{}
	vm := NewLogin(auth, &fakeSession{}, &fakeNotifier{}, &fakeNav{})

	_, err := vm.Submit(context.Background(), "bad", "secret1")
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindValidation))
	_, err = vm.Submit(context.Background(), "a@b.io", "12345")
	assert.EqualError(t, err, "password must be at least 6 characters")
	_, err = vm.Submit(context.Background(), "a@b.io", "")
	assert.EqualError(t, err, "please enter your password")
	assert.Zero(t, auth.calls)
}

func TestLoginFailureNotifies(t *testing.T) {
	auth := &fakeAuth{err: oaerrors.New(oaerrors.ErrCodeClient, "wrong email or password").WithStatus(400)}
	store := &fakeSession{}
	notifier := &fakeNotifier{}
	nav := &fakeNav{}
	vm := NewLogin(auth, store, notifier, nav)

	_, err := vm.Submit(context.Background(), "a@b.io", "secret1")
	require.Error(t, err)
	assert.Equal(t, []string{"wrong email or password"}, notifier.messages("error"))
	assert.Empty(t, store.token)
	assert.Empty(t, nav.paths)
}

func TestFrame(t *testing.T) {
	assert.Equal(t, "acct", Username(session.User{"account": "acct"}))
	assert.Equal(t, "user", Username(session.User{}))

	store := &fakeSession{user: session.User{"username": "ann"}, token: "t"}
	nav := &fakeNav{}
	notifier := &fakeNotifier{}
	auth := &fakeAuth{}
	f := NewFrame(auth, store, notifier, nav)
	assert.Equal(t, "ann", f.Username())

	err := f.ChangePassword(context.Background(), PasswordForm{"oldpass", "newpass1", "newpass2"})
	assert.EqualError(t, err, "the two passwords do not match")
	err = f.ChangePassword(context.Background(), PasswordForm{"oldpass", "short", "short"})
	assert.EqualError(t, err, "passwords must be 6 to 20 characters")
	err = f.ChangePassword(context.Background(), PasswordForm{"oldpass", "", ""})
	assert.EqualError(t, err, "please fill in all fields")
	assert.Zero(t, auth.calls)

	require.NoError(t, f.ChangePassword(context.Background(), PasswordForm{"oldpass", "newpass1", "newpass1"}))
	assert.Equal(t, []string{"password changed"}, notifier.messages("success"))

	require.NoError(t, f.Logout())
	assert.True(t, store.cleared)
	assert.Equal(t, []string{RouteLogin}, nav.paths)
}
