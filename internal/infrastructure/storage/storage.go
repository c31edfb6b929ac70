// Package storage provides object storage implementations for file operations.
package storage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/payables/backend/internal/infrastructure/config"
)

// ObjectStorage abstracts the backend that holds attachment file contents.
// Keys are opaque to callers; the attachment record carries the key.
type ObjectStorage interface {
	// Put stores the object under the key, overwriting any previous content.
	Put(ctx context.Context, storageKey string, data io.Reader, contentType string) error

	// Get opens the object for reading. The caller must close the reader.
	Get(ctx context.Context, storageKey string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, storageKey string) error

	// Exists reports whether the object is present.
	Exists(ctx context.Context, storageKey string) (bool, error)
}

// NewObjectStorage creates the object storage selected by configuration.
func NewObjectStorage(cfg *config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage configuration is required")
	}

	switch cfg.Driver {
	case "local", "":
		return NewLocalObjectStorage(cfg.LocalPath)
	case "s3":
		return NewS3ObjectStorage(cfg, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
