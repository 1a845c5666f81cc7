package server

import (
	"sync"

	"github.com/matzehuels/chartsnap/pkg/sink"
)

// store keeps finished exports for download, evicting the oldest first.
type store struct {
	mu      sync.Mutex
	max     int
	order   []string
	exports map[string]*sink.MemorySink
}

func newStore(max int) *store {
	return &store{max: max, exports: make(map[string]*sink.MemorySink)}
}

func (s *store) put(id string, m *sink.MemorySink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[id] = m
	s.order = append(s.order, id)
	for len(s.order) > s.max {
		delete(s.exports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *store) get(id string) (*sink.MemorySink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.exports[id]
	return m, ok
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}
