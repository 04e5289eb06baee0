package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements ObjectStore on a directory of the local filesystem.
// Intended for development and single-node deployments.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the base directory if needed and returns a store
// rooted at it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// keyPath maps a key to a path under the base directory, rejecting keys that
// would escape it.
func (l *LocalStore) keyPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, cleaned), nil
}

// Put writes an object to disk.
func (l *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := l.keyPath(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	return f.Close()
}

// Get opens an object for reading.
func (l *LocalStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := l.keyPath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Delete removes an object. Deleting a missing object is a no-op.
func (l *LocalStore) Delete(_ context.Context, key string) error {
	path, err := l.keyPath(key)
	if err != nil {
		return err
	}

	if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
