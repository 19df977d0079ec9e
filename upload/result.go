package upload

import (
	"sort"
	"time"

	"github.com/opd-ai/fluffy/history"
)

// pasteKey is the uploaded_files key the server uses for a text paste.
const pasteKey = "paste"

// UploadedFile is the server's record of one stored file.
type UploadedFile struct {
	Name          string
	Bytes         int64
	Raw           string
	Paste         string
	LanguageTitle string
	NumLines      int
}

// Result is the server's answer to a successful upload or paste.
type Result struct {
	Redirect string
	Metadata string
	// Files is ordered by name.
	Files   []UploadedFile
	IsPaste bool
}

// RawURLs returns the direct link of every uploaded file.
func (r *Result) RawURLs() []string {
	urls := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		urls = append(urls, f.Raw)
	}
	return urls
}

// HistoryEntry builds the record kept in the local upload history.
func (r *Result) HistoryEntry(now time.Time) history.Entry {
	entry := history.Entry{
		URL:     r.Redirect,
		Time:    now,
		Version: history.CurrentVersion,
	}
	if r.IsPaste && len(r.Files) > 0 {
		p := r.Files[0]
		entry.PasteDetails = &history.PasteDetail{
			Paste:         p.Paste,
			Raw:           p.Raw,
			Metadata:      r.Metadata,
			LanguageTitle: p.LanguageTitle,
			NumLines:      p.NumLines,
		}
		return entry
	}
	for _, f := range r.Files {
		entry.FileDetails = append(entry.FileDetails, history.FileDetail{
			Filename: f.Name,
			Bytes:    f.Bytes,
			RawURL:   f.Raw,
			PasteURL: f.Paste,
		})
	}
	return entry
}

// response is the JSON body the server returns for ?json requests.
type response struct {
	Success       bool                    `json:"success"`
	Error         string                  `json:"error"`
	Redirect      string                  `json:"redirect"`
	Metadata      string                  `json:"metadata"`
	UploadedFiles map[string]uploadedFile `json:"uploaded_files"`
}

type uploadedFile struct {
	Bytes    int64  `json:"bytes"`
	Raw      string `json:"raw"`
	Paste    string `json:"paste"`
	NumLines int    `json:"num_lines"`
	Language struct {
		Title string `json:"title"`
	} `json:"language"`
}

func (resp *response) result(isPaste bool) *Result {
	r := &Result{
		Redirect: resp.Redirect,
		Metadata: resp.Metadata,
		IsPaste:  isPaste,
	}
	for name, f := range resp.UploadedFiles {
		if isPaste && name != pasteKey {
			continue
		}
		r.Files = append(r.Files, UploadedFile{
			Name:          name,
			Bytes:         f.Bytes,
			Raw:           f.Raw,
			Paste:         f.Paste,
			LanguageTitle: f.Language.Title,
			NumLines:      f.NumLines,
		})
	}
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Name < r.Files[j].Name })
	return r
}
