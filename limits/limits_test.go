package limits

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUploadSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		max     int64
		wantErr error
	}{
		{"under_limit", 10, 100, nil},
		{"at_limit", 100, 100, nil},
		{"over_limit", 101, 100, ErrTooLarge},
		{"no_limit", 1 << 40, 0, nil},
		{"negative_limit_disables", 5, -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploadSize(tt.size, tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUploadSize(%d, %d) = %v, want %v", tt.size, tt.max, err, tt.wantErr)
			}
		})
	}
}

// TestValidateUploadSizeContext verifies the error names both sizes.
func TestValidateUploadSizeContext(t *testing.T) {
	err := ValidateUploadSize(2048, 1024)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "2048") || !strings.Contains(err.Error(), "1024") {
		t.Errorf("error %q should mention actual and maximum sizes", err)
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  error
	}{
		{"simple", "notes.txt", nil},
		{"unicode", "ünïcødé.png", nil},
		{"max_length", strings.Repeat("a", MaxFileNameLength), nil},
		{"empty", "", ErrEmpty},
		{"too_long", strings.Repeat("a", MaxFileNameLength+1), ErrFileNameTooLong},
		{"invalid_utf8", "bad\xff.txt", ErrFileNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.fileName)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFileName() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaste(t *testing.T) {
	if err := ValidatePaste("", 0); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty paste: got %v, want ErrEmpty", err)
	}
	if err := ValidatePaste("hello", 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized paste: got %v, want ErrTooLarge", err)
	}
	if err := ValidatePaste("hello", DefaultMaxUploadBytes); err != nil {
		t.Errorf("valid paste: got %v", err)
	}
}
