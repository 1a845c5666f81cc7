package overlay

import (
	"sort"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Technique is an edge post-processing filter offered by the service.
type Technique string

const (
	Sparsification Technique = "sparsification"
	Blur           Technique = "blur"
	Contour        Technique = "contour"
)

func (t Technique) String() string { return string(t) }

// Techniques lists every known technique in a stable order.
var Techniques = []Technique{Sparsification, Blur, Contour}

// ParseTechnique accepts a technique name, case-insensitively.
func ParseTechnique(s string) (Technique, error) {
	t := Technique(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Techniques {
		if t == known {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown overlay technique %q", s)
}

// Params holds per-technique numeric settings.
type Params map[Technique]map[string]float64

// DefaultParams returns the service's standard settings.
func DefaultParams() Params {
	return Params{
		Sparsification: {"drop_rate": 0.7},
		Blur:           {"kernel_size": 10, "sigma": 2.0},
		Contour:        {"epsilon_factor": 0.03},
	}
}

// flatten returns "technique.name" keyed values, for cache keys.
func (p Params) flatten() map[string]float64 {
	out := make(map[string]float64)
	for t, kv := range p {
		for k, v := range kv {
			out[string(t)+"."+k] = v
		}
	}
	return out
}

// techniques returns the params' techniques sorted by name.
func (p Params) techniques() []string {
	names := make([]string, 0, len(p))
	for t := range p {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}
