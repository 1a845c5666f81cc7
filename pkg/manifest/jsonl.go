package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

// JSONLStore appends entries to a JSON lines file.
type JSONLStore struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// NewJSONLStore opens path for appending, creating parent directories.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "manifest path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create manifest directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open manifest")
	}
	return &JSONLStore{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the file path.
func (s *JSONLStore) Path() string { return s.path }

// Record appends one line.
func (s *JSONLStore) Record(ctx context.Context, o batch.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New(errors.ErrCodeInternal, "manifest closed")
	}
	return s.enc.Encode(FromOutcome(o))
}

// Close flushes and closes the file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadJSONL loads every entry of a JSON lines manifest.
func ReadJSONL(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open manifest")
	}
	defer f.Close()

	var entries []Entry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode manifest entry %d", len(entries)+1)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
