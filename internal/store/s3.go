package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"aeroval/internal/types"
)

// delimiter is the folder separator for the hierarchical key namespace.
const delimiter = "/"

// s3API is the subset of the S3 SDK client used by the store.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements ObjectStore against a single S3 bucket.
// The underlying SDK client is safe for concurrent use, so one S3Store may
// be shared across matcher workers.
type S3Store struct {
	client s3API
	bucket string
	logger *slog.Logger
}

// NewS3Store creates an S3-backed ObjectStore for the given bucket.
func NewS3Store(client s3API, bucket string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

// ListFolders returns the immediate child prefixes under prefix.
// Continuation tokens are drained before returning.
func (s *S3Store) ListFolders(ctx context.Context, prefix string) ([]string, error) {
	prefix = EnsureFolder(prefix)

	var folders []string
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String(delimiter),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, &types.AppError{
				Code:    types.ErrCodeStorageUnavailable,
				Message: fmt.Sprintf("listing folders under %q", prefix),
				Err:     err,
			}
		}

		for _, cp := range out.CommonPrefixes {
			folders = append(folders, aws.ToString(cp.Prefix))
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	s.logger.DebugContext(ctx, "listed folders", "prefix", prefix, "count", len(folders))
	return folders, nil
}

// ListLeafFolders walks the namespace below prefix and returns every
// folder with no child prefixes. The walk is an explicit iterative
// traversal, not recursion, so namespace depth cannot grow the stack.
func (s *S3Store) ListLeafFolders(ctx context.Context, prefix string) ([]string, error) {
	pending, err := s.ListFolders(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var leaves []string
	for len(pending) > 0 {
		folder := pending[0]
		pending = pending[1:]

		children, err := s.ListFolders(ctx, folder)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			leaves = append(leaves, folder)
			continue
		}
		pending = append(pending, children...)
	}

	s.logger.DebugContext(ctx, "leaf walk complete", "prefix", prefix, "leaves", len(leaves))
	return leaves, nil
}

// ListFiles returns the object keys under prefix, optionally filtered by
// suffix. Continuation tokens are drained before returning.
func (s *S3Store) ListFiles(ctx context.Context, prefix string, suffix string) ([]string, error) {
	var files []string
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, &types.AppError{
				Code:    types.ErrCodeStorageUnavailable,
				Message: fmt.Sprintf("listing files under %q", prefix),
				Err:     err,
			}
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if suffix == "" || strings.HasSuffix(key, suffix) {
				files = append(files, key)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	return files, nil
}

// ReadJSON reads and unmarshals the object at key into v.
func (s *S3Store) ReadJSON(ctx context.Context, key string, v any) error {
	body, err := s.getObject(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &types.AppError{
			Code:    types.ErrCodeMalformedJSON,
			Message: fmt.Sprintf("parsing JSON object %q", key),
			Err:     err,
		}
	}
	return nil
}

// ReadCSV reads the object at key as a CSV table. The first row is the
// header; each subsequent row becomes a header-keyed map. Rows shorter
// than the header simply omit the trailing columns.
func (s *S3Store) ReadCSV(ctx context.Context, key string) ([]map[string]string, error) {
	body, err := s.getObject(ctx, key)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &types.AppError{
			Code:    types.ErrCodeMalformedCSV,
			Message: fmt.Sprintf("reading CSV header of %q", key),
			Err:     err,
		}
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &types.AppError{
				Code:    types.ErrCodeMalformedCSV,
				Message: fmt.Sprintf("reading CSV rows of %q", key),
				Err:     err,
			}
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	s.logger.DebugContext(ctx, "read CSV object", "key", key, "rows", len(rows))
	return rows, nil
}

// WriteText writes content to key with the given content type.
func (s *S3Store) WriteText(ctx context.Context, key string, content string, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(content)),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return &types.AppError{
			Code:    types.ErrCodeStorageUnavailable,
			Message: fmt.Sprintf("writing object %q", key),
			Err:     err,
		}
	}

	s.logger.InfoContext(ctx, "wrote object", "key", key, "bytes", len(content))
	return nil
}

// getObject fetches an object body, classifying a missing key as an
// absence signal and everything else as a fatal storage error.
func (s *S3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			s.logger.WarnContext(ctx, "object not found", "key", key)
			return nil, types.NewNotFound(types.ErrCodeNotFoundObject, key)
		}
		return nil, &types.AppError{
			Code:    types.ErrCodeStorageUnavailable,
			Message: fmt.Sprintf("reading object %q", key),
			Err:     err,
		}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &types.AppError{
			Code:    types.ErrCodeStorageUnavailable,
			Message: fmt.Sprintf("reading body of %q", key),
			Err:     err,
		}
	}
	return body, nil
}
