package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	timerate "golang.org/x/time/rate"
)

// fileField is the form field the server reads uploaded files from.
const fileField = "file"

// progressInterval bounds how often progress is reported while sending.
const progressInterval = 50 * time.Millisecond

// maxReadChunk is the largest read issued when a bandwidth cap is set.
const maxReadChunk = 32 * 1024

// multipartBody streams queued files as multipart/form-data without
// buffering their content. Part headers are rendered up front so the
// exact Content-Length is known before the first byte is sent.
type multipartBody struct {
	contentType string
	length      int64
	reader      io.Reader
	files       []*fileReader
}

func newMultipartBody(files []File) (*multipartBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	body := &multipartBody{contentType: mw.FormDataContentType()}
	readers := make([]io.Reader, 0, 2*len(files)+1)

	for _, f := range files {
		if _, err := mw.CreateFormFile(fileField, f.Name); err != nil {
			return nil, fmt.Errorf("creating form file: %w", err)
		}
		header := append([]byte(nil), buf.Bytes()...)
		buf.Reset()

		fr := &fileReader{file: f}
		body.files = append(body.files, fr)
		readers = append(readers, bytes.NewReader(header), fr)
		body.length += int64(len(header)) + f.Size
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %w", err)
	}
	trailer := append([]byte(nil), buf.Bytes()...)
	readers = append(readers, bytes.NewReader(trailer))
	body.length += int64(len(trailer))

	body.reader = io.MultiReader(readers...)
	return body, nil
}

func (b *multipartBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

// Close releases any file left open by an interrupted transfer.
func (b *multipartBody) Close() error {
	var first error
	for _, fr := range b.files {
		if err := fr.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// fileReader opens its file on first read and fails if the content no
// longer matches the size recorded when it was queued.
type fileReader struct {
	file File
	rc   io.ReadCloser
	read int64
	done bool
}

func (r *fileReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.rc == nil {
		rc, err := r.file.Open()
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", r.file.Name, err)
		}
		r.rc = rc
	}

	n, err := r.rc.Read(p)
	r.read += int64(n)
	if r.read > r.file.Size {
		return n, fmt.Errorf("%s: %w", r.file.Name, ErrFileChanged)
	}
	if err == io.EOF {
		r.done = true
		if cerr := r.close(); cerr != nil {
			return n, cerr
		}
		if r.read != r.file.Size {
			return n, fmt.Errorf("%s: %w", r.file.Name, ErrFileChanged)
		}
	}
	return n, err
}

func (r *fileReader) close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	return err
}

// progressReader counts bytes handed to the transport, reports them at
// most once per progressInterval and applies the optional bandwidth cap.
type progressReader struct {
	ctx     context.Context
	body    io.ReadCloser
	total   int64
	sent    int64
	limiter *timerate.Limiter
	report  func(sent, total int64)
	now     func() time.Time
	last    time.Time
}

func newLimiter(bytesPerSecond int) *timerate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := bytesPerSecond
	if burst > maxReadChunk {
		burst = maxReadChunk
	}
	return timerate.NewLimiter(timerate.Limit(bytesPerSecond), burst)
}

func (r *progressReader) Read(p []byte) (int, error) {
	if r.limiter != nil && len(p) > r.limiter.Burst() {
		p = p[:r.limiter.Burst()]
	}

	n, err := r.body.Read(p)
	if n > 0 {
		if r.limiter != nil {
			if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
				return n, werr
			}
		}
		r.sent += int64(n)
		now := r.now()
		if r.sent == r.total || now.Sub(r.last) >= progressInterval {
			r.last = now
			if r.report != nil {
				r.report(r.sent, r.total)
			}
		}
	}
	return n, err
}

func (r *progressReader) Close() error {
	return r.body.Close()
}
