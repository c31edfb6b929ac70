package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Ensure LocalObjectStorage implements ObjectStorage
var _ ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage implements ObjectStorage on the local filesystem.
// Suitable for single-instance deployments and development.
type LocalObjectStorage struct {
	root string
}

// NewLocalObjectStorage creates a new LocalObjectStorage rooted at the given
// directory, creating it if needed.
func NewLocalObjectStorage(root string) (*LocalObjectStorage, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalObjectStorage{root: root}, nil
}

// path resolves a storage key to a filesystem path, rejecting keys that
// would escape the storage root.
func (s *LocalObjectStorage) path(storageKey string) (string, error) {
	if storageKey == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(storageKey)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %s", storageKey)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Put stores the object under the key, overwriting any previous content
func (s *LocalObjectStorage) Put(ctx context.Context, storageKey string, data io.Reader, contentType string) error {
	path, err := s.path(storageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// Get opens the object for reading
func (s *LocalObjectStorage) Get(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	path, err := s.path(storageKey)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", storageKey)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *LocalObjectStorage) Delete(ctx context.Context, storageKey string) error {
	path, err := s.path(storageKey)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists reports whether the object is present
func (s *LocalObjectStorage) Exists(ctx context.Context, storageKey string) (bool, error) {
	path, err := s.path(storageKey)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Root returns the storage root directory
func (s *LocalObjectStorage) Root() string {
	return s.root
}
