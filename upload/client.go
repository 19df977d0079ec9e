package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fluffy/limits"
)

// AutodetectLanguage asks the server to guess a paste's language.
const AutodetectLanguage = "autodetect"

// DefaultUserAgent identifies the client to the server.
const DefaultUserAgent = "fluffy-go"

// maxResponseBytes caps how much of a server response is read.
const maxResponseBytes = 1 << 20

// tooLargePrefix starts the message the server sends for oversized files.
const tooLargePrefix = "File is too large"

// Error is a failure reported by the server, or a request refused before
// sending because it exceeds the size limit.
type Error struct {
	StatusCode int
	Message    string
	Oversized  bool
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is reports oversized errors as limits.ErrTooLarge.
func (e *Error) Is(target error) bool {
	return e.Oversized && target == limits.ErrTooLarge
}

// IsOversized reports whether err means the upload was too large.
func IsOversized(err error) bool {
	return errors.Is(err, limits.ErrTooLarge)
}

// Credentials are sent as HTTP basic auth.
type Credentials struct {
	Username string
	Password string
}

// PasteRequest is the text and highlighting language of a paste.
type PasteRequest struct {
	Text     string
	Language string
}

// Client talks to one fluffy server.
type Client struct {
	// Server is the base URL, e.g. https://fluffy.cc.
	Server      string
	Credentials *Credentials
	HTTPClient  *http.Client

	// MaxUploadBytes is the per-file (and per-paste) limit checked before
	// sending. Zero disables the check.
	MaxUploadBytes int64

	// BytesPerSecond caps upload bandwidth. Zero means unlimited.
	BytesPerSecond int

	UserAgent string

	logger *logrus.Entry
}

// NewClient returns a client for server using the default size limit.
func NewClient(server string) *Client {
	return &Client{
		Server:         strings.TrimRight(server, "/"),
		HTTPClient:     http.DefaultClient,
		MaxUploadBytes: limits.DefaultMaxUploadBytes,
		UserAgent:      DefaultUserAgent,
		logger:         logrus.WithField("server", server),
	}
}

func (c *Client) log() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.WithField("server", c.Server)
	}
	return c.logger
}

func (c *Client) endpoint(path string, query url.Values) string {
	return strings.TrimRight(c.Server, "/") + path + "?" + query.Encode()
}

// UploadFiles sends every file queued in s as one multipart request. The
// session moves to StateUploading for the duration and ends in
// StateCompleted or StateCancelled. Cancelling the session, or ctx,
// aborts the transfer and returns an error wrapping ErrCancelled.
func (c *Client) UploadFiles(ctx context.Context, s *Session) (*Result, error) {
	uploadCtx, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}

	files := s.Files()
	for _, f := range files {
		if err := limits.ValidateUploadSize(f.Size, c.MaxUploadBytes); err != nil {
			uerr := &Error{
				Message:   fmt.Sprintf("%s: %v", f.Name, err),
				Oversized: errors.Is(err, limits.ErrTooLarge),
			}
			return nil, c.fail(uploadCtx, s, uerr)
		}
	}

	body, err := newMultipartBody(files)
	if err != nil {
		return nil, c.fail(uploadCtx, s, err)
	}

	// Reports count body bytes, part headers included, so the first one
	// replaces the file-size total seeded by Begin before anything is sent.
	s.Progress(0, body.length)

	progress := &progressReader{
		ctx:     uploadCtx,
		body:    body,
		total:   body.length,
		limiter: newLimiter(c.BytesPerSecond),
		report: func(sent, total int64) {
			s.Progress(sent, total)
		},
		now: time.Now,
	}

	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, c.endpoint("/upload", url.Values{"json": {""}}), progress)
	if err != nil {
		body.Close()
		return nil, c.fail(uploadCtx, s, fmt.Errorf("creating request: %w", err))
	}
	req.ContentLength = body.length
	req.Header.Set("Content-Type", body.contentType)

	c.log().WithFields(logrus.Fields{
		"function":   "UploadFiles",
		"session_id": s.ID.String(),
		"files":      len(files),
		"bytes":      body.length,
	}).Debug("Sending upload request")

	result, err := c.do(req, false)
	if err != nil {
		return nil, c.fail(uploadCtx, s, err)
	}
	if err := s.Complete(result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return result, nil
}

// fail ends the session's transfer. A cancelled context takes the
// cancellation path instead of recording err as a failure.
func (c *Client) fail(uploadCtx context.Context, s *Session, err error) error {
	if ctxErr := uploadCtx.Err(); ctxErr != nil {
		// Already cancelled when the user called Session.Cancel.
		_ = s.Cancel()
		return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	if ferr := s.Fail(err); ferr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return err
}

// Paste uploads text as a paste.
func (c *Client) Paste(ctx context.Context, p PasteRequest) (*Result, error) {
	if err := limits.ValidatePaste(p.Text, c.MaxUploadBytes); err != nil {
		if errors.Is(err, limits.ErrTooLarge) {
			return nil, &Error{Message: err.Error(), Oversized: true}
		}
		return nil, err
	}
	language := p.Language
	if language == "" {
		language = AutodetectLanguage
	}

	form := url.Values{"language": {language}, "text": {p.Text}}
	query := url.Values{"json": {""}, "language": {language}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/paste", query), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.log().WithFields(logrus.Fields{
		"function": "Paste",
		"language": language,
		"bytes":    len(p.Text),
	}).Debug("Sending paste request")

	result, err := c.do(req, true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) do(req *http.Request, isPaste bool) (*Result, error) {
	if c.Credentials != nil {
		req.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var decoded response
	decodeErr := json.Unmarshal(data, &decoded)

	if resp.StatusCode != http.StatusOK || (decodeErr == nil && !decoded.Success) {
		uerr := serverError(resp.StatusCode, data, decoded, decodeErr)
		c.log().WithFields(logrus.Fields{
			"function":  "do",
			"status":    resp.StatusCode,
			"oversized": uerr.Oversized,
			"error":     uerr.Message,
		}).Error("Server rejected request")
		return nil, uerr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}

	result := decoded.result(isPaste)
	c.log().WithFields(logrus.Fields{
		"function": "do",
		"redirect": result.Redirect,
		"files":    len(result.Files),
	}).Info("Upload accepted")
	return result, nil
}

func serverError(status int, data []byte, decoded response, decodeErr error) *Error {
	message := decoded.Error
	if decodeErr != nil || message == "" {
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		StatusCode: status,
		Message:    message,
		Oversized:  status == http.StatusRequestEntityTooLarge || strings.HasPrefix(message, tooLargePrefix),
	}
}
