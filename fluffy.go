package fluffy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/history"
	"github.com/opd-ai/fluffy/upload"
)

// ErrNoServer is returned by New when no server URL is configured.
var ErrNoServer = errors.New("no server configured")

// Options contains configuration for a Client.
type Options struct {
	Server         string
	Credentials    *upload.Credentials
	MaxUploadBytes int64
	BytesPerSecond int
	UserAgent      string

	// History receives a record of every successful upload. Nil disables
	// recording.
	History history.Store

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// NewOptions returns options for the public server with the default
// upload limit and no history.
func NewOptions() *Options {
	defaults := config.Default()
	return &Options{
		Server:         defaults.Server,
		MaxUploadBytes: defaults.MaxUploadBytes,
		BytesPerSecond: defaults.BytesPerSecond,
		UserAgent:      upload.DefaultUserAgent,
	}
}

// OptionsFromSettings maps loaded settings onto client options. History
// is backed by a file store at settings.HistoryPath when enabled.
func OptionsFromSettings(s *config.Settings) *Options {
	options := NewOptions()
	options.Server = s.Server
	options.MaxUploadBytes = s.MaxUploadBytes
	options.BytesPerSecond = s.BytesPerSecond
	if s.History {
		path := s.HistoryPath
		if path == "" {
			path = config.DefaultHistoryPath()
		}
		options.History = history.NewFileStore(path)
	}
	return options
}

// Client uploads files and pastes to one fluffy server and keeps the
// local history of what it sent.
type Client struct {
	options  *Options
	uploader *upload.Client
	history  history.Store

	mu           sync.Mutex
	timeProvider upload.TimeProvider
	logger       *logrus.Entry
}

// New creates a client. Nil options use NewOptions.
func New(options *Options) (*Client, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.Server == "" {
		return nil, ErrNoServer
	}

	uploader := upload.NewClient(options.Server)
	uploader.Credentials = options.Credentials
	uploader.MaxUploadBytes = options.MaxUploadBytes
	uploader.BytesPerSecond = options.BytesPerSecond
	if options.UserAgent != "" {
		uploader.UserAgent = options.UserAgent
	}
	if options.HTTPClient != nil {
		uploader.HTTPClient = options.HTTPClient
	}

	c := &Client{
		options:      options,
		uploader:     uploader,
		history:      options.History,
		timeProvider: upload.DefaultTimeProvider{},
		logger: logrus.WithFields(logrus.Fields{
			"server": options.Server,
		}),
	}

	c.logger.WithFields(logrus.Fields{
		"function":         "New",
		"history":          c.history != nil,
		"max_upload_bytes": options.MaxUploadBytes,
		"bytes_per_second": options.BytesPerSecond,
	}).Debug("Created fluffy client")
	return c, nil
}

// SetTimeProvider sets the clock used to timestamp history entries.
func (c *Client) SetTimeProvider(tp upload.TimeProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeProvider = tp
}

func (c *Client) clock() upload.TimeProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeProvider
}

// Server returns the server URL the client talks to.
func (c *Client) Server() string {
	return c.options.Server
}

// NewSession returns an idle session whose queue enforces the client's
// per-file limit.
func (c *Client) NewSession() *upload.Session {
	return upload.NewSession(upload.NewQueue(c.options.MaxUploadBytes))
}

// UploadFiles uploads the files queued in s and records the result.
func (c *Client) UploadFiles(ctx context.Context, s *upload.Session) (*upload.Result, error) {
	result, err := c.uploader.UploadFiles(ctx, s)
	if err != nil {
		return nil, err
	}
	c.record(ctx, result)
	return result, nil
}

// Paste uploads text and records the result.
func (c *Client) Paste(ctx context.Context, p upload.PasteRequest) (*upload.Result, error) {
	result, err := c.uploader.Paste(ctx, p)
	if err != nil {
		return nil, err
	}
	c.record(ctx, result)
	return result, nil
}

func (c *Client) record(ctx context.Context, result *upload.Result) {
	if c.history == nil {
		return
	}
	entry := result.HistoryEntry(c.clock().Now())
	if err := c.history.Add(ctx, entry); err != nil {
		c.logger.WithFields(logrus.Fields{
			"function": "record",
			"url":      entry.URL,
			"error":    err.Error(),
		}).Warn("Failed to record upload history")
	}
}

// History returns the recorded uploads, newest first. It returns nothing
// when history is disabled.
func (c *Client) History(ctx context.Context) ([]history.Entry, error) {
	if c.history == nil {
		return nil, nil
	}
	entries, err := c.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return history.Recent(entries, 0), nil
}

// ClearHistory forgets every recorded upload.
func (c *Client) ClearHistory(ctx context.Context) error {
	if c.history == nil {
		return nil
	}
	if err := c.history.Clear(ctx); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	c.logger.WithField("function", "ClearHistory").Info("History cleared")
	return nil
}
