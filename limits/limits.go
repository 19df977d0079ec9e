// Package limits provides client-side upload limits for fluffy.
package limits

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// MaxFileNameLength is the longest accepted file name in bytes.
	MaxFileNameLength = 255

	// DefaultMaxUploadBytes is the default per-file ceiling of a fluffy server.
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024
)

var (
	// ErrEmpty indicates an empty paste or file name.
	ErrEmpty = errors.New("empty content")

	// ErrTooLarge indicates a file or paste exceeds the configured upload size.
	ErrTooLarge = errors.New("upload too large")

	// ErrFileNameTooLong indicates a file name exceeds MaxFileNameLength.
	ErrFileNameTooLong = errors.New("file name too long")

	// ErrFileNameInvalid indicates a file name that is not valid UTF-8.
	ErrFileNameInvalid = errors.New("file name is not valid UTF-8")
)

// ValidateUploadSize checks size against max. A max of zero or less means
// no limit.
func ValidateUploadSize(size, max int64) error {
	if max <= 0 || size <= max {
		return nil
	}
	return fmt.Errorf("%w: size %d exceeds limit %d", ErrTooLarge, size, max)
}

// ValidateFileName checks that name is non-empty, valid UTF-8 and no
// longer than MaxFileNameLength.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: file name", ErrEmpty)
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrFileNameTooLong, len(name), MaxFileNameLength)
	}
	if !utf8.ValidString(name) {
		return ErrFileNameInvalid
	}
	return nil
}

// ValidatePaste checks that text is non-empty and fits within max.
func ValidatePaste(text string, max int64) error {
	if len(text) == 0 {
		return fmt.Errorf("%w: paste text", ErrEmpty)
	}
	return ValidateUploadSize(int64(len(text)), max)
}
