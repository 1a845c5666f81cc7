package cache

// ScopedKeyer wraps a Keyer with a prefix so several corpora can share one
// backend without colliding:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "corpus:bars-v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}

// OverlayKey generates a prefixed key for overlay caching.
func (k *ScopedKeyer) OverlayKey(asset, technique string, params map[string]float64) string {
	return k.prefix + k.inner.OverlayKey(asset, technique, params)
}
