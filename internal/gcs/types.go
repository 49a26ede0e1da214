package gcs

import (
	"context"
	"io"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Open returns a reader for the object at a gs:// URI.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)

	// Upload streams r into the object at a gs:// URI.
	Upload(ctx context.Context, uri string, r io.Reader, contentType string) error

	// Close releases the underlying client.
	Close() error
}
