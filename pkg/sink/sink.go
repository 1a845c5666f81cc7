package sink

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Sink receives finished artifacts.
type Sink interface {
	// Deliver stores data under name and returns where it went.
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// ValidateName trims name and rejects empty names or names with path
// components.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "artifact name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New(errors.ErrCodeInvalidInput, "artifact name %q must be a plain file name", name)
	}
	return name, nil
}

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

// NewDirSink returns a sink writing into dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}
	return &DirSink{Dir: dir}, nil
}

// Deliver writes data to a temporary file next to the target and renames it
// into place. The temporary file is removed on every failure path.
func (s *DirSink) Deliver(ctx context.Context, name string, data []byte) (path string, err error) {
	name, err = ValidateName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create temp file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "close %s", name)
	}

	path = filepath.Join(s.Dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "move %s into place", name)
	}
	committed = true
	return path, nil
}

// MemorySink keeps artifacts in memory. It is safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// Deliver stores a copy of data under name.
func (s *MemorySink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		s.order = append(s.order, name)
	}
	s.files[name] = append([]byte(nil), data...)
	return name, nil
}

// Get returns the artifact stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Names lists stored artifacts in delivery order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Sorted lists stored artifacts alphabetically.
func (s *MemorySink) Sorted() []string {
	names := s.Names()
	sort.Strings(names)
	return names
}
