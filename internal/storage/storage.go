// Package storage provides the durable key/value tier the session survives
// restarts in. Values are opaque strings, mirroring browser local storage.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Storage is string-keyed, string-valued persistence.
// A missing key is reported by ok == false, never by an error.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Backend is a Storage that holds a resource to release.
type Backend interface {
	Storage
	io.Closer
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the JSON file or SQLite database. Ignored by the memory backend.
	Path string
	// Passphrase, when set, encrypts every value at rest.
	Passphrase string
}

// DefaultPath returns ~/.oactl/<name>, falling back to the working directory.
func DefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".oactl", name)
	}
	return filepath.Join(home, ".oactl", name)
}

// Open constructs the backend named in opts.
func Open(opts Options) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		path := opts.Path
		if path == "" {
			path = DefaultPath("session.json")
		}
		backend, err = NewFileStorage(path)
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = DefaultPath("session.db")
		}
		backend, err = NewSQLiteStorage(path)
	case BackendMemory:
		backend = NewMemoryStorage()
	default:
		return nil, errors.Newf(errors.ErrCodeConfigInvalid, "unknown storage backend %q", opts.Backend).
			WithSuggestion(fmt.Sprintf("use one of %s, %s, %s", BackendFile, BackendSQLite, BackendMemory))
	}
	if err != nil {
		return nil, err
	}

	if opts.Passphrase != "" {
		encrypted, err := NewEncryptedStorage(backend, opts.Passphrase)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		return encrypted, nil
	}
	return backend, nil
}
