// Package store implements the object-storage accessor for the validation
// data collector. It exposes the narrow listing/reading/writing surface the
// pipeline needs and translates SDK failures into the application error
// taxonomy: a missing object is an absence signal, an unparsable object is
// malformed data, and anything else (network, access) is fatal.
package store

import (
	"context"
	"strings"
)

// ObjectStore is the storage surface consumed by the pipeline components.
// Implementations must fully drain pagination before returning: a partial
// listing is never exposed as complete.
type ObjectStore interface {
	// ListFolders returns the immediate child prefixes under prefix, in
	// listing order.
	ListFolders(ctx context.Context, prefix string) ([]string, error)

	// ListLeafFolders returns every prefix under prefix that has no child
	// prefixes of its own, found by descending the namespace.
	ListLeafFolders(ctx context.Context, prefix string) ([]string, error)

	// ListFiles returns the object keys under prefix. A non-empty suffix
	// filters to keys ending with it (e.g. ".json").
	ListFiles(ctx context.Context, prefix string, suffix string) ([]string, error)

	// ReadJSON reads the object at key and unmarshals it into v.
	ReadJSON(ctx context.Context, key string, v any) error

	// ReadCSV reads the object at key as a CSV table and returns one
	// header-keyed map per data row.
	ReadCSV(ctx context.Context, key string) ([]map[string]string, error)

	// WriteText writes content to key with the given content type.
	WriteText(ctx context.Context, key string, content string, contentType string) error
}

// FolderName extracts the leaf name from a folder prefix,
// e.g. "sim-data/geometries/Car_A/" → "Car_A".
func FolderName(prefix string) string {
	trimmed := strings.TrimSuffix(prefix, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// EnsureFolder normalizes a prefix to end with exactly one delimiter.
// An empty prefix stays empty (the bucket root).
func EnsureFolder(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/"
}
