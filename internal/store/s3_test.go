package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroval/internal/types"
)

// --- Test Doubles ---

type putCall struct {
	key         string
	body        string
	contentType string
}

// mockS3 simulates the narrow s3API surface over an in-memory key space.
// Listing is paginated with pageSize entries per page so the drain logic
// is exercised.
type mockS3 struct {
	objects  map[string]string
	pageSize int
	listErr  error
	getErr   error
	puts     []putCall
}

func (m *mockS3) entriesFor(prefix, delim string) (files []string, folders []string) {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	seen := map[string]bool{}
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				cp := prefix + rest[:i+1]
				if !seen[cp] {
					seen[cp] = true
					folders = append(folders, cp)
				}
				continue
			}
		}
		files = append(files, k)
	}
	return files, folders
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	files, folders := m.entriesFor(aws.ToString(params.Prefix), aws.ToString(params.Delimiter))

	type entry struct {
		key    string
		folder bool
	}
	var all []entry
	for _, f := range files {
		all = append(all, entry{key: f})
	}
	for _, f := range folders {
		all = append(all, entry{key: f, folder: true})
	}

	start := 0
	if tok := params.ContinuationToken; tok != nil {
		start, _ = strconv.Atoi(*tok)
	}
	size := m.pageSize
	if size <= 0 {
		size = 1000
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(all))}
	for _, e := range all[start:end] {
		if e.folder {
			out.CommonPrefixes = append(out.CommonPrefixes, s3types.CommonPrefix{Prefix: aws.String(e.key)})
		} else {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(e.key)})
		}
	}
	if aws.ToBool(out.IsTruncated) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	body, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, fmt.Errorf("get object: %w", &s3types.NoSuchKey{})
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.puts = append(m.puts, putCall{
		key:         aws.ToString(params.Key),
		body:        string(body),
		contentType: aws.ToString(params.ContentType),
	})
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(mock *mockS3) *S3Store {
	return NewS3Store(mock, "sim-bucket", nil)
}

// --- Tests ---

func TestListFoldersDrainsPagination(t *testing.T) {
	mock := &mockS3{
		pageSize: 1,
		objects: map[string]string{
			"geo/Car_A/a.json": "{}",
			"geo/Car_B/b.json": "{}",
			"geo/Car_C/c.json": "{}",
		},
	}

	folders, err := newTestStore(mock).ListFolders(context.Background(), "geo")
	require.NoError(t, err)
	assert.Equal(t, []string{"geo/Car_A/", "geo/Car_B/", "geo/Car_C/"}, folders)
}

func TestListLeafFoldersDescendsToLeaves(t *testing.T) {
	mock := &mockS3{
		objects: map[string]string{
			"geo/batch1/Car_A/Car_A.json": "{}",
			"geo/batch1/Car_B/Car_B.json": "{}",
			"geo/Car_C/Car_C.json":        "{}",
		},
	}

	leaves, err := newTestStore(mock).ListLeafFolders(context.Background(), "geo/")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"geo/batch1/Car_A/", "geo/batch1/Car_B/", "geo/Car_C/"},
		leaves,
	)
}

func TestListFilesFiltersBySuffix(t *testing.T) {
	mock := &mockS3{
		objects: map[string]string{
			"res/run1/export_scalars.json":     "{}",
			"res/run1/export_force_series.csv": "a,b",
			"res/run1/notes.txt":               "n",
		},
	}

	files, err := newTestStore(mock).ListFiles(context.Background(), "res/run1/", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"res/run1/export_scalars.json"}, files)
}

func TestListFoldersStorageErrorIsFatal(t *testing.T) {
	mock := &mockS3{listErr: errors.New("access denied")}

	_, err := newTestStore(mock).ListFolders(context.Background(), "geo")
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}

func TestReadJSONMissingKeyIsNotFound(t *testing.T) {
	mock := &mockS3{objects: map[string]string{}}

	var v map[string]any
	err := newTestStore(mock).ReadJSON(context.Background(), "geo/x/x.json", &v)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
	assert.False(t, types.IsFatal(err))
}

func TestReadJSONUnparsableIsMalformed(t *testing.T) {
	mock := &mockS3{objects: map[string]string{"geo/x/x.json": "{not json"}}

	var v map[string]any
	err := newTestStore(mock).ReadJSON(context.Background(), "geo/x/x.json", &v)
	require.Error(t, err)
	assert.True(t, types.IsMalformed(err))
}

func TestReadJSONTransportErrorIsFatal(t *testing.T) {
	mock := &mockS3{getErr: errors.New("connection reset")}

	var v map[string]any
	err := newTestStore(mock).ReadJSON(context.Background(), "geo/x/x.json", &v)
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}

func TestReadCSVHeaderKeyedRows(t *testing.T) {
	mock := &mockS3{objects: map[string]string{
		"res/r/export_force_series.csv": "Iteration,Drag Monitor: Drag Monitor (N)\n1,80.5\n2,81.0\n",
	}}

	rows, err := newTestStore(mock).ReadCSV(context.Background(), "res/r/export_force_series.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "80.5", rows[0]["Drag Monitor: Drag Monitor (N)"])
	assert.Equal(t, "2", rows[1]["Iteration"])
}

func TestReadCSVShortRowOmitsTrailingColumns(t *testing.T) {
	mock := &mockS3{objects: map[string]string{
		"res/r/s.csv": "a,b,c\n1,2\n",
	}}

	rows, err := newTestStore(mock).ReadCSV(context.Background(), "res/r/s.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, ok := rows[0]["c"]
	assert.False(t, ok)
}

func TestWriteTextSetsContentType(t *testing.T) {
	mock := &mockS3{objects: map[string]string{}}
	st := newTestStore(mock)

	err := st.WriteText(context.Background(), "out/report.txt", "hello", "text/plain")
	require.NoError(t, err)
	require.Len(t, mock.puts, 1)
	assert.Equal(t, "out/report.txt", mock.puts[0].key)
	assert.Equal(t, "hello", mock.puts[0].body)
	assert.Equal(t, "text/plain", mock.puts[0].contentType)
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "Car_A", FolderName("geo/batch1/Car_A/"))
	assert.Equal(t, "Car_A", FolderName("Car_A"))
	assert.Equal(t, "run", FolderName("res/run"))
}
