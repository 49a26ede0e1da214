package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/gcs"
	"github.com/dvloznov/ledger/internal/logger"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ErrExists is returned when a local destination exists and overwrite was not requested.
var ErrExists = errors.New("destination already exists")

// Header is the field order shared by every tabular export.
var Header = []string{"Id", "Timestamp", "Payee", "Amount", "Currency", "Category"}

// ParseFormat maps a name such as "csv" or "JSON" to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or xlsx)", name)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Render writes txs to w in the given format.
func Render(ctx context.Context, format Format, w io.Writer, txs []domain.Transaction) error {
	switch format {
	case FormatCSV:
		return WriteCSV(ctx, w, txs)
	case FormatJSON:
		return WriteJSON(ctx, w, txs)
	case FormatXLSX:
		return WriteXLSX(ctx, w, txs)
	default:
		return fmt.Errorf("Render: unsupported format %q", format)
	}
}

// sortedByID returns a copy of txs ordered by id.
func sortedByID(txs []domain.Transaction) []domain.Transaction {
	out := slices.Clone(txs)
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		return a.ID - b.ID
	})
	return out
}

// Exporter writes exports to local paths or gs:// URIs.
type Exporter struct {
	storage gcs.StorageService
}

// NewExporter creates an exporter. storage may be nil when gs:// destinations
// are not needed.
func NewExporter(storage gcs.StorageService) *Exporter {
	return &Exporter{storage: storage}
}

// Exists reports whether a local destination already exists. Remote
// destinations are always reported as absent.
func (e *Exporter) Exists(dest string) bool {
	if gcs.IsURI(dest) {
		return false
	}
	_, err := os.Stat(dest)
	return err == nil
}

// ExportFile renders txs and writes them to dest.
func (e *Exporter) ExportFile(ctx context.Context, dest string, format Format, txs []domain.Transaction, overwrite bool) error {
	log := logger.FromContext(ctx)

	if gcs.IsURI(dest) {
		if e.storage == nil {
			return fmt.Errorf("ExportFile: no storage client configured for %s", dest)
		}

		var buf bytes.Buffer
		if err := Render(ctx, format, &buf, txs); err != nil {
			return fmt.Errorf("ExportFile: %w", err)
		}
		if err := e.storage.Upload(ctx, dest, &buf, format.ContentType()); err != nil {
			return fmt.Errorf("ExportFile: %w", err)
		}

		log.Info().Str("destination", dest).Str("format", string(format)).Int("records", len(txs)).Msg("Export uploaded")
		return nil
	}

	if !overwrite && e.Exists(dest) {
		return fmt.Errorf("ExportFile: %s: %w", dest, ErrExists)
	}

	if err := writeFileAtomic(ctx, dest, format, txs); err != nil {
		return fmt.Errorf("ExportFile: %w", err)
	}

	log.Info().Str("destination", dest).Str("format", string(format)).Int("records", len(txs)).Msg("Export written")
	return nil
}

// writeFileAtomic renders into a temporary file next to dest and renames it
// over dest only once rendering succeeded, so an existing file survives a
// failed or cancelled export.
func writeFileAtomic(ctx context.Context, dest string, format Format, txs []domain.Transaction) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file for %s: %w", dest, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := Render(ctx, format, tmp, txs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	return nil
}
