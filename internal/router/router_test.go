package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/session"
)

type stubSession struct {
	token string
	user  session.User
}

func (s stubSession) Token() string      { return s.token }
func (s stubSession) User() session.User { return s.user }

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) Success(string) {}
func (w *warnings) Info(string)    {}
func (w *warnings) Error(string)   {}
func (w *warnings) Warning(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func TestLookup(t *testing.T) {
	r := New(stubSession{}, &warnings{}, WithLogger(log.Discard()))

	m, ok := r.Lookup("/inform/detail/12")
	require.True(t, ok)
	assert.Equal(t, "inform_detail", m.Route.Name)
	assert.Equal(t, map[string]string{"id": "12"}, m.Params)

	m, ok = r.Lookup("staff/list/?tab=1")
	require.True(t, ok)
	assert.Equal(t, PathStaffList, m.Path)

	m, ok = r.Lookup("")
	require.True(t, ok)
	assert.Equal(t, "home", m.Route.Name)

	_, ok = r.Lookup("/inform/detail/")
	assert.False(t, ok)
	_, ok = r.Lookup("/nowhere")
	assert.False(t, ok)
}

func TestGuardRedirectsWithoutToken(t *testing.T) {
	// A user record alone does not pass the guard; only the token counts.
	r := New(stubSession{user: session.User{"is_superuser": true}}, &warnings{}, WithLogger(log.Discard()))

	for _, path := range []string{"/", "/attendance/my", "/staff/list", "/inform/detail/3"} {
		m, err := r.Resolve(path)
		require.NoError(t, err)
		assert.Equal(t, PathLogin, m.Path, path)
	}

	m, err := r.Resolve("/login")
	require.NoError(t, err)
	assert.Equal(t, PathLogin, m.Path)
}

func TestGuardPermission(t *testing.T) {
	tests := []struct {
		name    string
		user    session.User
		allowed bool
	}{
		{"superuser", session.User{"is_superuser": true}, true},
		{"superuser string", session.User{"is_superuser": "true"}, true},
		{"leader", session.User{"is_leader": true}, true},
		{"leader role", session.User{"role": "leader"}, true},
		{"department leader", session.User{"position": "department_leader"}, true},
		{"member", session.User{"username": "sue"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &warnings{}
			r := New(stubSession{token: "t", user: tt.user}, w, WithLogger(log.Discard()))

			m, err := r.Resolve("/staff/add")
			require.NoError(t, err)
			if tt.allowed {
				assert.Equal(t, PathStaffAdd, m.Path)
				assert.Empty(t, w.msgs)
				return
			}
			assert.Equal(t, PathHome, m.Path)
			assert.Equal(t, []string{MsgPermissionDenied}, w.msgs)
		})
	}
}

func TestNavigate(t *testing.T) {
	var seen []string
	r := New(stubSession{token: "t", user: session.User{}}, &warnings{},
		WithLogger(log.Discard()),
		OnChange(func(m Match) { seen = append(seen, m.Route.Name) }))

	_, err := r.Navigate("/inform/list")
	require.NoError(t, err)
	r.Push("/staff/list")
	r.Push("/missing")

	assert.Equal(t, PathHome, r.Current().Path)
	assert.Equal(t, []string{PathInformList, PathHome}, r.History())
	assert.Equal(t, []string{"inform_list", "home"}, seen)

	_, err = r.Navigate("/missing")
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindClient))
}
