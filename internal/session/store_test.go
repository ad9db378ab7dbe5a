package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/storage"
)

func newTestStore() (*Store, *storage.MemoryStorage) {
	mem := storage.NewMemoryStorage()
	return NewStore(mem, log.Discard()), mem
}

func TestSetWritesBothTiers(t *testing.T) {
	store, mem := newTestStore()

	require.NoError(t, store.Set(User{"username": "wang", "is_leader": true}, "tok-1"))

	assert.Equal(t, "tok-1", store.Token())
	assert.Equal(t, "wang", store.User().Name())

	raw, ok, _ := mem.GetItem(TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", raw)
	raw, ok, _ = mem.GetItem(UserKey)
	assert.True(t, ok)
	assert.JSONEq(t, `{"username":"wang","is_leader":true}`, raw)
}

func TestReadThroughOnMiss(t *testing.T) {
	store, mem := newTestStore()
	require.NoError(t, mem.SetItem(TokenKey, "from-disk"))
	require.NoError(t, mem.SetItem(UserKey, `{"email":"a@b.cn"}`))

	assert.Equal(t, "from-disk", store.Token())
	assert.Equal(t, "a@b.cn", store.User().Email())

	// Cached: a later storage change is not observed until Load.
	require.NoError(t, mem.SetItem(TokenKey, "changed"))
	assert.Equal(t, "from-disk", store.Token())
	require.NoError(t, store.Load())
	assert.Equal(t, "changed", store.Token())
}

func TestUserReturnsCopy(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Set(User{"username": "li"}, "t"))

	u := store.User()
	u["username"] = "mutated"
	assert.Equal(t, "li", store.User().Name())
}

func TestClear(t *testing.T) {
	store, mem := newTestStore()
	require.NoError(t, store.Set(User{"username": "li"}, "t"))

	require.NoError(t, store.Clear())

	assert.Equal(t, "", store.Token())
	assert.True(t, store.User().Empty())
	_, ok, _ := mem.GetItem(TokenKey)
	assert.False(t, ok)
	_, ok, _ = mem.GetItem(UserKey)
	assert.False(t, ok)
}

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		name  string
		user  User
		token string
		want  bool
	}{
		{"both set", User{"username": "li"}, "t", true},
		{"token only", User{}, "t", true},
		{"user only", User{"username": "li"}, "", true},
		{"neither", User{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()
			require.NoError(t, store.Set(tt.user, tt.token))
			assert.Equal(t, tt.want, store.IsAuthenticated())
		})
	}

	t.Run("after clear", func(t *testing.T) {
		store, _ := newTestStore()
		require.NoError(t, store.Set(User{"username": "li"}, "t"))
		require.NoError(t, store.Clear())
		assert.False(t, store.IsAuthenticated())
	})
}

func TestPersistedTokenBypassesMemory(t *testing.T) {
	store, mem := newTestStore()
	require.NoError(t, store.Set(User{}, "in-memory"))
	require.NoError(t, mem.RemoveItem(TokenKey))

	assert.Equal(t, "in-memory", store.Token())
	assert.Equal(t, "", store.PersistedToken())
}

func TestExpireTokenKeepsUser(t *testing.T) {
	store, mem := newTestStore()
	require.NoError(t, store.Set(User{"username": "li"}, "t"))

	require.NoError(t, store.ExpireToken())

	_, ok, _ := mem.GetItem(TokenKey)
	assert.False(t, ok)
	assert.Equal(t, "", store.Token())
	assert.Equal(t, "li", store.User().Name())
}

func TestLoadCorruptUser(t *testing.T) {
	store, mem := newTestStore()
	require.NoError(t, mem.SetItem(TokenKey, "t"))
	require.NoError(t, mem.SetItem(UserKey, "{broken"))

	err := store.Load()
	require.Error(t, err)
	assert.Equal(t, "t", store.Token())
	assert.True(t, store.User().Empty())
}

type failingStorage struct {
	*storage.MemoryStorage
	failKey string
}

func (f failingStorage) SetItem(key, value string) error {
	if key == f.failKey {
		return fmt.Errorf("disk full")
	}
	return f.MemoryStorage.SetItem(key, value)
}

func TestSetSecondWriteFailureKeepsFirst(t *testing.T) {
	mem := storage.NewMemoryStorage()
	store := NewStore(failingStorage{MemoryStorage: mem, failKey: TokenKey}, log.Discard())

	err := store.Set(User{"username": "li"}, "t")
	require.Error(t, err)

	_, ok, _ := mem.GetItem(UserKey)
	assert.True(t, ok, "user write is not rolled back")
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	store, _ := newTestStore()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, store.Set(User{}, signedToken(t, exp)))

	got, ok := store.TokenExpiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, store.Expired(time.Now()))
	assert.True(t, store.Expired(exp.Add(time.Second)))

	require.NoError(t, store.Set(User{}, "opaque-token"))
	_, ok = store.TokenExpiry()
	assert.False(t, ok)
	assert.False(t, store.Expired(time.Now()), "opaque tokens never count as expired")
}
