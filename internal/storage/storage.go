package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines the interface for object store operations.
type Storage interface {
	// Upload stores an object and returns the result with key and public URL.
	// Overwriting an existing key is permitted; callers pre-generate unique keys.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// PresignGet issues a time-bounded, read-only URL scoped to the given key.
	// It does not verify the key exists; the consumer of the URL finds out.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PublicURL derives the stable, non-expiring URL for a key from store
	// configuration alone. It performs no network I/O.
	PublicURL(key string) string

	// Delete removes an object by its key.
	Delete(ctx context.Context, key string) error

	// Ping verifies the store is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// UploadInput holds the parameters for uploading an object.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}
