package gcs

import (
	"fmt"
	"path"
	"strings"
)

// Scheme is the URI prefix for Cloud Storage objects.
const Scheme = "gs://"

// IsURI reports whether s names a Cloud Storage object.
func IsURI(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseURI splits gs://bucket/path/to/object into bucket and object name.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, Scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// ExtractFilename extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/jan.csv" → "jan.csv"
func ExtractFilename(uri string) string {
	trimmed := strings.TrimPrefix(uri, Scheme)

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}

	return path.Base(parts[1])
}
