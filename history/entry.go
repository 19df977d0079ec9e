// Package history keeps the local record of a user's past uploads and
// pastes, in the same shape the fluffy web pages keep in browser storage.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CurrentVersion is written into every new entry.
const CurrentVersion = 1

// ErrInvalidEntry indicates an entry that cannot be recorded.
var ErrInvalidEntry = errors.New("invalid history entry")

// FileDetail describes one file of a file upload.
type FileDetail struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	RawURL   string `json:"rawUrl"`
	PasteURL string `json:"pasteUrl,omitempty"`
}

// PasteDetail describes a text paste.
type PasteDetail struct {
	Paste         string `json:"paste"`
	Raw           string `json:"raw"`
	Metadata      string `json:"metadata"`
	LanguageTitle string `json:"language_title"`
	NumLines      int    `json:"num_lines"`
}

// Entry is one recorded upload. Exactly one of FileDetails and
// PasteDetails is set.
type Entry struct {
	URL          string
	Time         time.Time
	FileDetails  []FileDetail
	PasteDetails *PasteDetail
	Version      int
}

// entryJSON is the stored form of Entry; time is epoch milliseconds.
type entryJSON struct {
	URL          string       `json:"url"`
	Time         int64        `json:"time"`
	FileDetails  []FileDetail `json:"fileDetails,omitempty"`
	PasteDetails *PasteDetail `json:"pasteDetails,omitempty"`
	Version      int          `json:"version,omitempty"`
}

// IsPaste reports whether e records a paste.
func (e Entry) IsPaste() bool {
	return e.PasteDetails != nil
}

// Validate checks the one-of invariant and that the entry has a URL.
func (e Entry) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("%w: missing url", ErrInvalidEntry)
	}
	hasFiles := len(e.FileDetails) > 0
	if hasFiles == e.IsPaste() {
		return fmt.Errorf("%w: exactly one of file or paste details is required", ErrInvalidEntry)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		URL:          e.URL,
		Time:         e.Time.UnixMilli(),
		FileDetails:  e.FileDetails,
		PasteDetails: e.PasteDetails,
		Version:      e.Version,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		URL:          raw.URL,
		Time:         time.UnixMilli(raw.Time),
		FileDetails:  raw.FileDetails,
		PasteDetails: raw.PasteDetails,
		Version:      raw.Version,
	}
	return nil
}
