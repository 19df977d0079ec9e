package upload

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/fluffy/limits"
)

func TestQueueAdd(t *testing.T) {
	q := NewQueue(0)
	path := writeFile(t, "notes.txt", "hello\n")

	f, err := q.Add(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(6), f.Size)
	assert.Len(t, f.Digest.String(), 64)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestQueueRejectsDuplicateContent(t *testing.T) {
	q := NewQueue(0)
	_, err := q.Add(writeFile(t, "a.txt", "same"))
	require.NoError(t, err)

	_, err = q.Add(writeFile(t, "b.txt", "same"))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "a.txt")
	assert.Equal(t, 1, q.Len())

	_, err = q.AddBytes("c.txt", []byte("same"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestQueueValidation(t *testing.T) {
	tests := []struct {
		name    string
		add     func(q *Queue) error
		wantErr error
	}{
		{
			name: "too_large",
			add: func(q *Queue) error {
				_, err := q.AddBytes("big.bin", make([]byte, 11))
				return err
			},
			wantErr: limits.ErrTooLarge,
		},
		{
			name: "empty_name",
			add: func(q *Queue) error {
				_, err := q.AddBytes("", []byte("x"))
				return err
			},
			wantErr: limits.ErrEmpty,
		},
		{
			name: "long_name",
			add: func(q *Queue) error {
				_, err := q.AddBytes(strings.Repeat("n", limits.MaxFileNameLength+1), []byte("x"))
				return err
			},
			wantErr: limits.ErrFileNameTooLong,
		},
		{
			name: "directory",
			add: func(q *Queue) error {
				_, err := q.Add(t.TempDir())
				return err
			},
			wantErr: ErrNotRegular,
		},
		{
			name: "reader_size_mismatch",
			add: func(q *Queue) error {
				_, err := q.AddReader("stdin", 3, strings.NewReader("four"))
				return err
			},
			wantErr: ErrFileChanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(10)
			err := tt.add(q)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestQueueMissingFile(t *testing.T) {
	q := NewQueue(0)
	_, err := q.Add("/nonexistent/fluffy/file")
	assert.Error(t, err)
}

func TestQueueAddReader(t *testing.T) {
	q := NewQueue(10)
	f, err := q.AddReader("stdin", -1, strings.NewReader("piped"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size)

	_, err = q.AddReader("huge", -1, strings.NewReader(strings.Repeat("x", 50)))
	assert.ErrorIs(t, err, limits.ErrTooLarge)
}

func TestQueueRemoveAndTotals(t *testing.T) {
	q := NewQueue(0)
	_, err := q.AddBytes("one", []byte("1"))
	require.NoError(t, err)
	_, err = q.AddBytes("two", []byte("22"))
	require.NoError(t, err)
	_, err = q.AddBytes("three", []byte("333"))
	require.NoError(t, err)

	assert.Equal(t, int64(6), q.TotalBytes())
	require.NoError(t, q.Remove(1))
	assert.Equal(t, int64(4), q.TotalBytes())

	names := []string{}
	for _, f := range q.Files() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"one", "three"}, names)

	// Removed content may be queued again.
	_, err = q.AddBytes("two again", []byte("22"))
	assert.NoError(t, err)

	assert.Error(t, q.Remove(5))
	assert.Error(t, q.Remove(-1))

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int64(0), q.TotalBytes())
}
