package gcs

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// Client is the concrete implementation of StorageService backed by
// Google Cloud Storage. Application Default Credentials are used unless
// a credentials file is given.
type Client struct {
	client *storage.Client
}

// NewClient creates a Cloud Storage client. credentialsFile may be empty.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewClient: create storage client: %w", err)
	}

	return &Client{client: client}, nil
}

// Open implements StorageService.
func (c *Client) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	rc, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Open: reading object %s/%s: %w", bucket, object, err)
	}

	return rc, nil
}

// Upload implements StorageService.
func (c *Client) Upload(ctx context.Context, uri string, r io.Reader, contentType string) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return fmt.Errorf("Upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("Upload: copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize upload: %w", err)
	}

	return nil
}

// Close implements StorageService.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ StorageService = (*Client)(nil)
