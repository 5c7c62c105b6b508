package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shaderflow/shaderflow/pkg/errors"
)

// File is a disk-backed cache. Entries are JSON files carrying the payload
// and an absolute expiry, laid out under a two-character fan-out of the
// hashed key to keep directories small.
type File struct {
	dir string
}

type fileEntry struct {
	Data    []byte    `json:"data"`
	Expires time.Time `json:"expires"`
}

// NewFile creates a file cache rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache dir %s", dir)
	}
	return &File{dir: dir}, nil
}

// Dir returns the cache root.
func (f *File) Dir() string { return f.dir }

// path hashes the key so arbitrary key characters never reach the
// filesystem.
func (f *File) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(f.dir, h[:2], h+".json")
}

// Get implements Cache.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "read cache entry")
	}

	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		// A corrupt entry is a miss; drop it.
		_ = os.Remove(f.path(key))
		return nil, false, nil
	}
	if time.Now().After(e.Expires) {
		_ = os.Remove(f.path(key))
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements Cache.
func (f *File) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create cache dir")
	}
	payload, err := json.Marshal(fileEntry{
		Data:    data,
		Expires: time.Now().Add(normalizeTTL(ttl)),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode cache entry")
	}

	// Write-then-rename so readers never see a partial entry.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write cache entry")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "commit cache entry")
	}
	return nil
}

// Delete implements Cache.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete cache entry")
	}
	return nil
}

// Close implements Cache.
func (f *File) Close() error { return nil }

// Clear removes every entry under the cache root.
func (f *File) Clear() error {
	if err := os.RemoveAll(f.dir); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "clear cache dir %s", f.dir)
	}
	return os.MkdirAll(f.dir, 0o755)
}
