package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/history"
)

func uploadServer(t *testing.T, got map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		uploaded := map[string]any{}
		for _, fh := range r.MultipartForm.File["file"] {
			f, err := fh.Open()
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(f)
			f.Close()
			got[fh.Filename] = string(data)
			uploaded[fh.Filename] = map[string]any{
				"bytes": len(data),
				"raw":   "https://i.fluffy.cc/" + fh.Filename,
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"redirect":       "https://i.fluffy.cc/u/abc.html",
			"uploaded_files": uploaded,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.HistoryPath = filepath.Join(t.TempDir(), "history.json")
	return s
}

func execute(t *testing.T, s *config.Settings, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFputUploadsAndRecordsHistory(t *testing.T) {
	got := map[string]string{}
	srv := uploadServer(t, got)
	s := testSettings(t)

	path := filepath.Join(t.TempDir(), "cat.txt")
	require.NoError(t, os.WriteFile(path, []byte("meow"), 0o600))

	out, err := execute(t, s, "piped", "--server", srv.URL, path, "-")
	require.NoError(t, err)
	assert.Equal(t, "https://i.fluffy.cc/u/abc.html\n", out)
	assert.Equal(t, map[string]string{"cat.txt": "meow", stdinName: "piped"}, got)

	entries, err := history.NewFileStore(s.HistoryPath).List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://i.fluffy.cc/u/abc.html", entries[0].URL)
	assert.Len(t, entries[0].FileDetails, 2)
}

func TestFputDirectLinkWithoutHistory(t *testing.T) {
	got := map[string]string{}
	srv := uploadServer(t, got)
	s := testSettings(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("beta"), 0o600))

	out, err := execute(t, s, "", "--server", srv.URL, "--direct-link", "--no-history", a, b)
	require.NoError(t, err)
	assert.Equal(t, "https://i.fluffy.cc/a.txt\nhttps://i.fluffy.cc/b.txt\n", out)

	_, err = os.Stat(s.HistoryPath)
	assert.True(t, os.IsNotExist(err), "history must not be written")
}

func TestFputRejectsBadInput(t *testing.T) {
	s := testSettings(t)
	s.MaxUploadBytes = 4

	big := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(big, []byte("too many bytes"), 0o600))

	tests := []struct {
		name string
		args []string
	}{
		{name: "no_files", args: []string{"--server", "http://127.0.0.1:1"}},
		{name: "missing_file", args: []string{"--server", "http://127.0.0.1:1", "/nonexistent/file"}},
		{name: "too_large", args: []string{"--server", "http://127.0.0.1:1", big}},
		{name: "bad_server", args: []string{"--server", "fluffy.cc", big}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, s, "", tt.args...)
			assert.Error(t, err)
		})
	}
}
