// Package config loads fluffy client settings from JSON files.
//
// Settings start from Default and are overlaid, in order, by each file
// returned from Paths that exists:
//
//	/etc/fluffy.json
//	$XDG_CONFIG_HOME/fluffy.json
//
// A file only needs the keys it changes, e.g. {"server": "https://fluffy.my.corp"}.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/user"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fluffy/limits"
)

// DefaultServer is the public fluffy instance.
const DefaultServer = "https://fluffy.cc"

// SystemPath is the machine-wide settings file.
const SystemPath = "/etc/fluffy.json"

// Settings are the user-tunable client options.
type Settings struct {
	Server         string `json:"server"`
	Auth           bool   `json:"auth"`
	Username       string `json:"username"`
	History        bool   `json:"history"`
	HistoryPath    string `json:"history_path"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	BytesPerSecond int    `json:"bytes_per_second"`
	LogLevel       string `json:"log_level"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Server:         DefaultServer,
		Username:       currentUsername(),
		History:        true,
		HistoryPath:    DefaultHistoryPath(),
		MaxUploadBytes: limits.DefaultMaxUploadBytes,
		LogLevel:       logrus.WarnLevel.String(),
	}
}

// DefaultHistoryPath is where upload history lives unless configured.
func DefaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, "fluffy", "history.json")
}

// Paths returns the settings files consulted by Load, lowest priority first.
func Paths() []string {
	return []string{
		SystemPath,
		filepath.Join(xdg.ConfigHome, "fluffy.json"),
	}
}

// Load overlays each existing file in paths onto the defaults and
// validates the result. Missing files are skipped.
func Load(paths ...string) (*Settings, error) {
	s := Default()
	for _, path := range paths {
		if err := s.overlay(path); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) overlay(path string) error {
	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(contents, s); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"path":     path,
	}).Debug("Applied settings file")
	return nil
}

// Validate reports the first setting that cannot be used.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.Server)
	if err != nil {
		return fmt.Errorf("invalid server %q: %w", s.Server, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server %q: must be an absolute http(s) URL", s.Server)
	}
	if s.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must not be negative")
	}
	if s.BytesPerSecond < 0 {
		return fmt.Errorf("bytes_per_second must not be negative")
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
