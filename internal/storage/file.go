package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// FileStorage persists all keys as one JSON object. Every write rewrites the
// file through a temp file and rename so a crash never leaves it half written.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates the parent directory (0700) if needed.
func NewFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageWrite, "failed to create storage directory", err)
	}
	return &FileStorage{path: path}, nil
}

// Path returns the backing file.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *FileStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	items[key] = value
	return f.write(items)
}

func (f *FileStorage) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.write(items)
}

// Close is a no-op; the file is not held open between calls.
func (f *FileStorage) Close() error { return nil }

func (f *FileStorage) read() (map[string]string, error) {
	items := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return items, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageRead, "failed to read session storage", err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageCorrupt, "session storage is corrupt", err).
			WithSuggestion("run 'oactl logout' to reset it, or delete " + f.path)
	}
	return items, nil
}

func (f *FileStorage) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to encode session storage", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write session storage", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write session storage", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write session storage", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write session storage", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write session storage", err)
	}
	return nil
}
