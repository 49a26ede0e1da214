package main

import (
	"path/filepath"
	"strings"
)

// formatFromPath derives an export format name from a file extension.
func formatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
