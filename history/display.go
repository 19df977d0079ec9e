package history

import (
	"fmt"
	"strings"

	"github.com/opd-ai/fluffy/humanize"
)

// Icon keys returned by IconKey besides file extensions.
const (
	IconPaste   = "paste-generic"
	IconUnknown = "unknown"
)

// DefaultIconExtensions lists the file extensions fluffy has icons for.
var DefaultIconExtensions = map[string]struct{}{
	"7z": {}, "avi": {}, "bin": {}, "bz2": {}, "c": {}, "cpp": {}, "css": {},
	"csv": {}, "deb": {}, "doc": {}, "docx": {}, "exe": {}, "flac": {}, "gif": {},
	"go": {}, "gz": {}, "h": {}, "html": {}, "iso": {}, "java": {}, "jpeg": {},
	"jpg": {}, "js": {}, "json": {}, "log": {}, "md": {}, "mkv": {}, "mov": {},
	"mp3": {}, "mp4": {}, "pdf": {}, "php": {}, "png": {}, "ppt": {}, "pptx": {},
	"py": {}, "rar": {}, "rb": {}, "rpm": {}, "rs": {}, "sh": {}, "svg": {},
	"tar": {}, "tgz": {}, "tiff": {}, "txt": {}, "wav": {}, "webm": {}, "xls": {},
	"xlsx": {}, "xml": {}, "yaml": {}, "zip": {},
}

// Recent returns the last n entries, newest first. A non-positive n
// returns all entries.
func Recent(entries []Entry, n int) []Entry {
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// extension returns the lowercased text after the last dot of name, or
// the whole lowercased name when it has no dot.
func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// Title summarizes an entry, e.g. "12 lines of Python" or "3 PNG files".
// A file type is named only when every file with a known extension
// shares it; unknown extensions are never named.
func Title(e Entry, known map[string]struct{}) string {
	if e.PasteDetails != nil {
		lines := int64(e.PasteDetails.NumLines)
		return fmt.Sprintf("%d line%s of %s", lines, humanize.Plural(lines), e.PasteDetails.LanguageTitle)
	}

	extensions := map[string]struct{}{}
	for _, f := range e.FileDetails {
		ext := extension(f.Filename)
		if _, ok := known[ext]; ok {
			extensions[ext] = struct{}{}
		}
	}

	count := int64(len(e.FileDetails))
	if len(extensions) == 1 {
		for ext := range extensions {
			return fmt.Sprintf("%d %s file%s", count, strings.ToUpper(ext), humanize.Plural(count))
		}
	}
	return fmt.Sprintf("%d file%s", count, humanize.Plural(count))
}

// IconKey picks the icon for an entry: IconPaste for pastes, otherwise
// the known extension of the largest file, or IconUnknown.
func IconKey(e Entry, known map[string]struct{}) string {
	if e.PasteDetails != nil {
		return IconPaste
	}

	best := IconUnknown
	var bestBytes int64 = -1
	for _, f := range e.FileDetails {
		ext := extension(f.Filename)
		if _, ok := known[ext]; !ok {
			continue
		}
		if f.Bytes > bestBytes {
			best, bestBytes = ext, f.Bytes
		}
	}
	return best
}
