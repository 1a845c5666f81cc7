package scene

import "sync"

// Live is a read-only handle on a scene owned by a renderer. Holders can
// inspect its size and take copies, but never mutate the tree itself.
type Live struct {
	mu    sync.RWMutex
	scene *Scene
}

// NewLive wraps s. The caller hands ownership of s to the Live value.
func NewLive(s *Scene) *Live {
	return &Live{scene: s}
}

// Replace swaps in a newly rendered scene.
func (l *Live) Replace(s *Scene) {
	l.mu.Lock()
	l.scene = s
	l.mu.Unlock()
}

// Present reports whether a scene is currently rendered.
func (l *Live) Present() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scene != nil && l.scene.Root != nil
}

// Clone returns an independently owned deep copy of the current scene, or
// nil when nothing is rendered.
func (l *Live) Clone() *Scene {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.scene == nil || l.scene.Root == nil {
		return nil
	}
	return l.scene.Clone()
}

// Markup encodes the current scene without copying it.
func (l *Live) Markup() []byte {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.scene == nil || l.scene.Root == nil {
		return nil
	}
	return l.scene.Markup()
}
