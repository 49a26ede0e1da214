package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/ledger/internal/gcs"
)

// LineSource opens import files by path.
type LineSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FileSource reads from the local filesystem.
type FileSource struct{}

// Open implements LineSource.
func (FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// RoutingSource sends gs:// URIs to Remote and everything else to Local.
type RoutingSource struct {
	Local  LineSource
	Remote gcs.StorageService
}

// NewRoutingSource creates a source for local files and, when storage is
// non-nil, Cloud Storage objects.
func NewRoutingSource(storage gcs.StorageService) *RoutingSource {
	return &RoutingSource{Local: FileSource{}, Remote: storage}
}

// Open implements LineSource.
func (s *RoutingSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if gcs.IsURI(path) {
		if s.Remote == nil {
			return nil, fmt.Errorf("no storage client configured for %s", path)
		}
		return s.Remote.Open(ctx, path)
	}
	return s.Local.Open(ctx, path)
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// readAll reads r to the end, observing cancellation between reads.
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	return io.ReadAll(ctxReader{ctx: ctx, r: r})
}
