package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/fluffy/limits"
)

type receivedUpload struct {
	contentLength int64
	files         map[string]string
	user          string
	password      string
}

// fakeServer mimics the JSON endpoints of a fluffy server.
func fakeServer(t *testing.T, got *receivedUpload) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query(), "json")
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		got.contentLength = r.ContentLength
		got.user, got.password, _ = r.BasicAuth()
		got.files = map[string]string{}
		uploaded := map[string]any{}
		for _, fh := range r.MultipartForm.File["file"] {
			f, err := fh.Open()
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(f)
			f.Close()
			got.files[fh.Filename] = string(data)
			uploaded[fh.Filename] = map[string]any{
				"bytes": len(data),
				"raw":   "https://i.fluffy.cc/" + fh.Filename,
				"paste": "https://i.fluffy.cc/p/" + fh.Filename,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"redirect":       "https://i.fluffy.cc/u/abc.html",
			"metadata":       "https://i.fluffy.cc/u/abc.json",
			"uploaded_files": uploaded,
		})
	})
	mux.HandleFunc("/paste", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "python", r.URL.Query().Get("language"))
		text := r.PostForm.Get("text")
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"redirect": "https://i.fluffy.cc/p/xyz.html",
			"metadata": "https://i.fluffy.cc/p/xyz.json",
			"uploaded_files": map[string]any{
				"paste": map[string]any{
					"bytes":     len(text),
					"raw":       "https://i.fluffy.cc/xyz.txt",
					"paste":     "https://i.fluffy.cc/p/xyz.html",
					"language":  map[string]string{"title": "Python"},
					"num_lines": 2,
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientUploadFiles(t *testing.T) {
	var got receivedUpload
	srv := fakeServer(t, &got)

	s := NewSession(nil)
	require.NoError(t, s.Queue(writeFile(t, "cat.png", "not really a png")))
	require.NoError(t, s.QueueBytes("notes.txt", []byte("hello\n")))

	var mu sync.Mutex
	var reports []Progress
	s.OnProgress(func(p Progress) {
		mu.Lock()
		reports = append(reports, p)
		mu.Unlock()
	})

	c := NewClient(srv.URL + "/")
	c.Credentials = &Credentials{Username: "alex", Password: "hunter2"}
	result, err := c.UploadFiles(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, result, s.Result())
	assert.Equal(t, "https://i.fluffy.cc/u/abc.html", result.Redirect)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "cat.png", result.Files[0].Name)
	assert.Equal(t, []string{"https://i.fluffy.cc/cat.png", "https://i.fluffy.cc/notes.txt"}, result.RawURLs())

	assert.Equal(t, map[string]string{"cat.png": "not really a png", "notes.txt": "hello\n"}, got.files)
	assert.Equal(t, "alex", got.user)
	assert.Equal(t, "hunter2", got.password)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(reports), 2)
	assert.Equal(t, int64(0), reports[0].Sent)
	for _, p := range reports {
		assert.Equal(t, got.contentLength, p.Total, "total must not change during the upload")
	}
	assert.Equal(t, got.contentLength, reports[len(reports)-1].Sent)
}

func TestClientUploadOversizedPrecheck(t *testing.T) {
	var got receivedUpload
	srv := fakeServer(t, &got)

	s := NewSession(nil)
	require.NoError(t, s.QueueBytes("big.bin", make([]byte, 64)))

	c := NewClient(srv.URL)
	c.MaxUploadBytes = 16
	_, err := c.UploadFiles(context.Background(), s)
	require.Error(t, err)
	assert.True(t, IsOversized(err))
	assert.Equal(t, StateCancelled, s.State())
	assert.Len(t, s.Files(), 1)
	assert.Nil(t, got.files, "nothing should be sent")
}

func TestClientServerErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantOversized bool
		wantMessage   string
	}{
		{
			name:          "too_large_message",
			status:        http.StatusBadRequest,
			body:          `{"success": false, "error": "File is too large; max size is 10.0 MB."}`,
			wantOversized: true,
			wantMessage:   "File is too large; max size is 10.0 MB.",
		},
		{
			name:          "entity_too_large",
			status:        http.StatusRequestEntityTooLarge,
			body:          "request body too large",
			wantOversized: true,
			wantMessage:   "request body too large",
		},
		{
			name:        "forbidden_extension",
			status:      http.StatusBadRequest,
			body:        `{"success": false, "error": "Sorry, \"a.exe\" has a forbidden file extension."}`,
			wantMessage: `Sorry, "a.exe" has a forbidden file extension.`,
		},
		{
			name:        "empty_body",
			status:      http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "ok_but_unsuccessful",
			status:      http.StatusOK,
			body:        `{"success": false, "error": "No files uploaded."}`,
			wantMessage: "No files uploaded.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			s := NewSession(nil)
			require.NoError(t, s.QueueBytes("a.txt", []byte("alpha")))
			_, err := NewClient(srv.URL).UploadFiles(context.Background(), s)
			require.Error(t, err)

			var uerr *Error
			require.ErrorAs(t, err, &uerr)
			assert.Equal(t, tt.status, uerr.StatusCode)
			assert.Equal(t, tt.wantMessage, uerr.Message)
			assert.Equal(t, tt.wantOversized, IsOversized(err))

			assert.Equal(t, StateCancelled, s.State())
			assert.Equal(t, err, s.Err())
			require.NoError(t, s.Retry())
			assert.Equal(t, StateFilesQueued, s.State())
		})
	}
}

func TestClientUploadCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewSession(nil)
	require.NoError(t, s.QueueBytes("a.txt", []byte("alpha")))

	go func() {
		<-started
		s.Cancel()
	}()

	_, err := NewClient(srv.URL).UploadFiles(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, s.State())
	assert.Len(t, s.Files(), 1)
}

func TestClientUploadParentContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewSession(nil)
	require.NoError(t, s.QueueBytes("a.txt", []byte("alpha")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).UploadFiles(ctx, s)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateCancelled, s.State())
}

func TestClientBandwidthLimit(t *testing.T) {
	var got receivedUpload
	srv := fakeServer(t, &got)

	s := NewSession(nil)
	require.NoError(t, s.QueueBytes("a.txt", make([]byte, 2048)))

	c := NewClient(srv.URL)
	c.BytesPerSecond = 1 << 20
	_, err := c.UploadFiles(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, got.files["a.txt"], 2048)
}

func TestClientFileChangedAfterQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	path := writeFile(t, "grow.txt", "short")
	s := NewSession(nil)
	require.NoError(t, s.Queue(path))
	require.NoError(t, os.WriteFile(path, []byte("much longer now"), 0o600))

	_, err := NewClient(srv.URL).UploadFiles(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileChanged)
	assert.Equal(t, StateCancelled, s.State())
}

func TestClientPaste(t *testing.T) {
	srv := fakeServer(t, &receivedUpload{})

	c := NewClient(srv.URL)
	result, err := c.Paste(context.Background(), PasteRequest{Text: "print(1)\nprint(2)\n", Language: "python"})
	require.NoError(t, err)
	require.True(t, result.IsPaste)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "Python", result.Files[0].LanguageTitle)
	assert.Equal(t, 2, result.Files[0].NumLines)

	entry := result.HistoryEntry(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, entry.Validate())
	assert.True(t, entry.IsPaste())
	assert.Equal(t, "https://i.fluffy.cc/p/xyz.json", entry.PasteDetails.Metadata)
}

func TestClientPasteValidation(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Paste(context.Background(), PasteRequest{})
	assert.ErrorIs(t, err, limits.ErrEmpty)

	c.MaxUploadBytes = 4
	_, err = c.Paste(context.Background(), PasteRequest{Text: "too long"})
	assert.True(t, IsOversized(err))
}

func TestResultHistoryEntryForFiles(t *testing.T) {
	r := &Result{
		Redirect: "https://i.fluffy.cc/u/abc.html",
		Files: []UploadedFile{
			{Name: "a.png", Bytes: 10, Raw: "https://i.fluffy.cc/a.png"},
			{Name: "b.txt", Bytes: 3, Raw: "https://i.fluffy.cc/b.txt", Paste: "https://i.fluffy.cc/p/b.html"},
		},
	}
	entry := r.HistoryEntry(time.Unix(100, 0))
	require.NoError(t, entry.Validate())
	require.Len(t, entry.FileDetails, 2)
	assert.Equal(t, "https://i.fluffy.cc/p/b.html", entry.FileDetails[1].PasteURL)
}
