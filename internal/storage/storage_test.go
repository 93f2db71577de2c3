package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	execs    []string
	execErr  error
	failExec int // 1-based statement index that fails

	copied  []byte
	table   string
	columns []string
	rows    int64
	copyErr error
	closed  bool
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	if f.failExec == len(f.execs) {
		return f.execErr
	}
	return nil
}

func (f *fakeRepo) CopyBinary(_ context.Context, table string, columns []string, r io.Reader) (int64, error) {
	f.table, f.columns = table, columns
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.copied = b
	return f.rows, f.copyErr
}

func (f *fakeRepo) Close() { f.closed = true }

// TestRegisterAndNew verifies that a registered factory is reachable by kind,
// case-insensitively, and that unknown kinds list what is available.
func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	var got Config
	Register("fake-registry", func(_ context.Context, cfg Config) (Repository, error) {
		got = cfg
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "FAKE-REGISTRY", DSN: "dsn", ConnectRetries: 2})
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "dsn", got.DSN)
	assert.Equal(t, 2, got.ConnectRetries)
	assert.Contains(t, Kinds(), "fake-registry")

	_, err = New(context.Background(), Config{Kind: "nope"})
	assert.ErrorContains(t, err, `no backend registered for kind "nope"`)
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		repo      *fakeRepo
		wantExecs int
		wantErr   string
	}{
		{name: "all statements run", repo: &fakeRepo{}, wantExecs: 3},
		{name: "stops at first failure", repo: &fakeRepo{failExec: 2, execErr: errors.New("permission denied")}, wantExecs: 2, wantErr: "statement 2 of 3: permission denied"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Prepare(context.Background(), tt.repo, []string{"DROP INDEX", "DROP TABLE", "CREATE TABLE"}, "job", zerolog.Nop())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, tt.repo.execs, tt.wantExecs)
		})
	}
}

// TestCopy_StreamsEverything checks the repository receives the complete
// stream and that progress is logged along the way.
func TestCopy_StreamsEverything(t *testing.T) {
	t.Parallel()

	stream := strings.Repeat("x", 1000)
	repo := &fakeRepo{rows: 10}
	var logs bytes.Buffer

	res, err := Copy(context.Background(), repo, CopyRequest{
		Table:         "bench",
		Columns:       []string{"a", "b"},
		Stream:        strings.NewReader(stream),
		Size:          int64(len(stream)),
		WantRows:      10,
		ProgressBytes: 100,
	}, zerolog.New(&logs))
	require.NoError(t, err)

	assert.Equal(t, stream, string(repo.copied))
	assert.Equal(t, "bench", repo.table)
	assert.Equal(t, []string{"a", "b"}, repo.columns)
	assert.Equal(t, int64(10), res.Rows)
	assert.Equal(t, int64(len(stream)), res.Bytes)
	assert.Contains(t, logs.String(), "copy progress")
	assert.Contains(t, logs.String(), `"component":"loader"`)
}

func TestCopy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		repo     *fakeRepo
		wantRows int64
		wantErr  string
	}{
		{name: "backend error", repo: &fakeRepo{copyErr: errors.New("22P04")}, wantRows: -1, wantErr: "22P04"},
		{name: "row count mismatch", repo: &fakeRepo{rows: 9}, wantRows: 10, wantErr: "server loaded 9 rows, want 10"},
		{name: "count not checked", repo: &fakeRepo{rows: 9}, wantRows: -1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Copy(context.Background(), tt.repo, CopyRequest{
				Table: "t", Stream: strings.NewReader("abc"), WantRows: tt.wantRows,
			}, zerolog.Nop())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
