package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrIndexNotFound is returned by Get when the index file does not exist.
	ErrIndexNotFound = errors.New("index file not found")
	// ErrOutOfRange matches any *OutOfRangeError.
	ErrOutOfRange = errors.New("index out of range")
)

// OutOfRangeError is returned by Get for a position outside the index.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("index %d out of range: index is empty", e.Index)
	}
	return fmt.Sprintf("index %d out of range. Valid range: 0-%d", e.Index, e.Len-1)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

var indexHeader = []string{"chat_filepath", "context_files"}

// Index is the append-only CSV registry of sessions. Entries are addressed by
// zero-based position in file order; duplicate transcript paths are kept.
type Index struct {
	path string
}

// OpenIndex binds an Index to path, writing the header row if the file does
// not exist yet or is empty.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("index path must not be empty")
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating index directory: %w", err)
			}
		}
		if err := appendRecord(path, indexHeader); err != nil {
			return nil, fmt.Errorf("creating index %s: %w", path, err)
		}
	case err != nil:
		return nil, fmt.Errorf("checking index %s: %w", path, err)
	case info.Size() == 0:
		if err := appendRecord(path, indexHeader); err != nil {
			return nil, fmt.Errorf("writing index header %s: %w", path, err)
		}
	}
	return &Index{path: path}, nil
}

// IndexAt binds an Index to path without touching the file system. Reads of
// a missing file behave as documented on All and Get.
func IndexAt(path string) *Index {
	return &Index{path: path}
}

// Path returns the backing file.
func (x *Index) Path() string {
	return x.path
}

// AddChat appends one entry.
func (x *Index) AddChat(transcriptPath string, contextFiles []string) error {
	if err := appendRecord(x.path, []string{transcriptPath, strings.Join(contextFiles, ListSeparator)}); err != nil {
		return fmt.Errorf("adding chat to index: %w", err)
	}
	return nil
}

// All returns every entry in file order. A missing file yields no entries.
func (x *Index) All() ([]IndexEntry, error) {
	f, err := os.Open(x.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []IndexEntry{}, nil
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()
	return readIndex(f)
}

// Get returns the entry at position i.
func (x *Index) Get(i int) (IndexEntry, error) {
	if _, err := os.Stat(x.path); errors.Is(err, os.ErrNotExist) {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrIndexNotFound, x.path)
	}
	entries, err := x.All()
	if err != nil {
		return IndexEntry{}, err
	}
	if i < 0 || i >= len(entries) {
		return IndexEntry{}, &OutOfRangeError{Index: i, Len: len(entries)}
	}
	return entries[i], nil
}

func readIndex(r io.Reader) ([]IndexEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []IndexEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index header: %w", err)
	}
	pathCol, filesCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case indexHeader[0]:
			pathCol = i
		case indexHeader[1]:
			filesCol = i
		}
	}
	if pathCol < 0 || filesCol < 0 {
		return nil, fmt.Errorf("malformed index: header must contain %s", strings.Join(indexHeader, ", "))
	}

	entries := []IndexEntry{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading index: %w", err)
		}
		e := IndexEntry{ContextFiles: []string{}}
		if pathCol < len(rec) {
			e.TranscriptPath = rec[pathCol]
		}
		if filesCol < len(rec) && rec[filesCol] != "" {
			e.ContextFiles = strings.Split(rec[filesCol], ListSeparator)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func appendRecord(path string, rec []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(rec); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
