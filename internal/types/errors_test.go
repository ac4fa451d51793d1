package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	notFound := NewNotFound(ErrCodeNotFoundMetadata, "sidecar geometries/x/x.json")
	malformed := &AppError{Code: ErrCodeMalformedJSON, Message: "bad sidecar"}
	storage := &AppError{Code: ErrCodeStorageUnavailable, Message: "list failed", Err: errors.New("dial tcp")}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsFatal(notFound))

	assert.True(t, IsMalformed(malformed))
	assert.False(t, IsFatal(malformed))

	assert.False(t, IsNotFound(storage))
	assert.True(t, IsFatal(storage))

	// Plain errors are fatal by default.
	assert.True(t, IsFatal(errors.New("boom")))
	assert.False(t, IsFatal(nil))
}

func TestErrorClassificationThroughWrapping(t *testing.T) {
	inner := NewNotFound(ErrCodeNotFoundObject, "results/x/export_scalars.json")
	wrapped := fmt.Errorf("extracting results: %w", inner)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsFatal(wrapped))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &AppError{Code: ErrCodeStorageUnavailable, Message: "get object", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage_unavailable: get object", err.Error())
}
