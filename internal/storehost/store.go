// Package storehost implements the authoritative document store behind
// the four-operation remote contract: read, overwrite, replace, reset.
// Exactly one document exists; every write stamps updatedAt and
// persists the normalized canonical shape.
package storehost

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoDocument is returned by a backend when nothing was stored yet.
var ErrNoDocument = errors.New("no document stored")

// DocumentStore persists the single serialized document.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, body []byte) error
}

// FileStore keeps the document in one JSON file, written atomically
// (temp file then rename) so a crash never leaves a torn document.
type FileStore struct {
	path string
}

// NewFileStore builds a store rooted at dir/name.
func NewFileStore(dir, name string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{path: filepath.Join(dir, name)}, nil
}

// Load reads the stored document, or ErrNoDocument when absent.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	body, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return body, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(_ context.Context, body []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".roster-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
