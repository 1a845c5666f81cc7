package cache

import "sort"

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// HTTPKey keys a raw HTTP response in a namespace.
	HTTPKey(namespace, key string) string
	// ArtifactKey keys an encoded export artifact by the hash of its source
	// scene markup and the export settings.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
	// OverlayKey keys processed overlay edges for an asset and technique.
	OverlayKey(asset, technique string, params map[string]float64) string
}

// ArtifactKeyOpts are the export settings that change artifact bytes.
type ArtifactKeyOpts struct {
	Mode       string  `json:"mode"`
	Format     string  `json:"format"`
	Scale      float64 `json:"scale"`
	Background bool    `json:"background"`
	Quality    int     `json:"quality,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ArtifactKey hashes the scene hash together with the options.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// OverlayKey hashes the asset, technique and sorted parameters.
func (DefaultKeyer) OverlayKey(asset, technique string, params map[string]float64) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]any, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, k, params[k])
	}
	return hashKey("overlay", asset, technique, pairs)
}
