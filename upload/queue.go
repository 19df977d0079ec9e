package upload

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/opd-ai/fluffy/limits"
)

var (
	// ErrDuplicate indicates a file whose content is already queued.
	ErrDuplicate = errors.New("file already queued")

	// ErrNotRegular indicates a path that is not a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrFileChanged indicates a queued file whose size changed before
	// it was sent.
	ErrFileChanged = errors.New("file changed size after being queued")
)

// Digest is the BLAKE2b-256 hash of a file's content.
type Digest [blake2b.Size256]byte

// String returns the hex form of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// File is one queued upload.
type File struct {
	Name   string
	Path   string
	Size   int64
	Digest Digest

	data []byte
}

// Open returns a reader over the file's content.
func (f File) Open() (io.ReadCloser, error) {
	if f.Path == "" {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
	return os.Open(f.Path)
}

// Queue is the ordered list of files for the next upload. A Queue is not
// safe for concurrent use; Session guards the queue it owns.
type Queue struct {
	files       []File
	digests     map[Digest]string
	maxFileSize int64
}

// NewQueue returns an empty queue rejecting files above maxFileSize
// bytes. A maxFileSize of zero or less disables the check.
func NewQueue(maxFileSize int64) *Queue {
	return &Queue{
		digests:     make(map[Digest]string),
		maxFileSize: maxFileSize,
	}
}

// Add queues the file at path.
func (q *Queue) Add(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	f := File{Name: filepath.Base(path), Path: path, Size: info.Size()}
	if err := q.validate(f); err != nil {
		return File{}, err
	}

	digest, err := digestFile(path)
	if err != nil {
		return File{}, err
	}
	f.Digest = digest
	if err := q.push(f); err != nil {
		return File{}, err
	}
	return f, nil
}

// AddBytes queues in-memory content, such as data read from stdin, under
// the given name.
func (q *Queue) AddBytes(name string, data []byte) (File, error) {
	f := File{
		Name:   name,
		Size:   int64(len(data)),
		Digest: Digest(blake2b.Sum256(data)),
		data:   data,
	}
	if err := q.validate(f); err != nil {
		return File{}, err
	}
	if err := q.push(f); err != nil {
		return File{}, err
	}
	return f, nil
}

// AddReader reads r to the end and queues its content under name. A
// non-negative size is the expected length; content of any other length
// is refused with ErrFileChanged.
func (q *Queue) AddReader(name string, size int64, r io.Reader) (File, error) {
	if q.maxFileSize > 0 {
		r = io.LimitReader(r, q.maxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return File{}, fmt.Errorf("%s: %w", name, ErrFileChanged)
	}
	return q.AddBytes(name, data)
}

func (q *Queue) validate(f File) error {
	if err := limits.ValidateFileName(f.Name); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := limits.ValidateUploadSize(f.Size, q.maxFileSize); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return nil
}

func (q *Queue) push(f File) error {
	if existing, dup := q.digests[f.Digest]; dup {
		logrus.WithFields(logrus.Fields{
			"function": "Queue.push",
			"file":     f.Name,
			"existing": existing,
			"digest":   f.Digest.String(),
		}).Debug("Refusing duplicate file")
		return fmt.Errorf("%s: %w as %s", f.Name, ErrDuplicate, existing)
	}
	q.digests[f.Digest] = f.Name
	q.files = append(q.files, f)
	return nil
}

// Remove drops the file at index i.
func (q *Queue) Remove(i int) error {
	if i < 0 || i >= len(q.files) {
		return fmt.Errorf("queue index %d out of range [0,%d)", i, len(q.files))
	}
	delete(q.digests, q.files[i].Digest)
	q.files = append(q.files[:i], q.files[i+1:]...)
	return nil
}

// Files returns a copy of the queued files in order.
func (q *Queue) Files() []File {
	return append([]File(nil), q.files...)
}

// Len returns the number of queued files.
func (q *Queue) Len() int {
	return len(q.files)
}

// TotalBytes returns the combined size of the queued files.
func (q *Queue) TotalBytes() int64 {
	var total int64
	for _, f := range q.files {
		total += f.Size
	}
	return total
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.files = nil
	q.digests = make(map[Digest]string)
}

func digestFile(path string) (Digest, error) {
	var d Digest
	file, err := os.Open(path)
	if err != nil {
		return d, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return d, err
	}
	if _, err := io.Copy(h, file); err != nil {
		return d, fmt.Errorf("hashing %s: %w", path, err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}
