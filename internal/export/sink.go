// Package export renders the collected simulation records into per-car
// CSV files and a plain-text summary report, and persists them either to
// a local directory or back into the object store.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"aeroval/internal/store"
	"aeroval/internal/types"
)

// Sink persists one named artifact.
type Sink interface {
	// Write stores content under name and returns the full destination
	// path or key.
	Write(ctx context.Context, name string, content string, contentType string) (string, error)
}

// LocalSink writes artifacts into a directory on the local filesystem,
// creating it on first use.
type LocalSink struct {
	Dir string
}

func (s *LocalSink) Write(ctx context.Context, name string, content string, contentType string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &types.AppError{
			Code:    types.ErrCodeInternalUnexpected,
			Message: fmt.Sprintf("creating output directory %q", s.Dir),
			Err:     err,
		}
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &types.AppError{
			Code:    types.ErrCodeInternalUnexpected,
			Message: fmt.Sprintf("writing %q", path),
			Err:     err,
		}
	}
	return path, nil
}

// TextWriter is the store surface StoreSink needs.
type TextWriter interface {
	WriteText(ctx context.Context, key string, content string, contentType string) error
}

// StoreSink writes artifacts under a key prefix in the object store.
type StoreSink struct {
	Store  TextWriter
	Prefix string
}

func (s *StoreSink) Write(ctx context.Context, name string, content string, contentType string) (string, error) {
	key := store.EnsureFolder(s.Prefix) + name
	if err := s.Store.WriteText(ctx, key, content, contentType); err != nil {
		return "", err
	}
	return key, nil
}
