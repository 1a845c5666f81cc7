package chart

import (
	"strconv"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/overlay"
)

// Kind is the chart type.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
)

// Setting names accepted in patches.
const (
	KeyKind      = "chart"
	KeyTrend     = "trend"
	KeyPoints    = "points"
	KeyWidth     = "width"
	KeyHeight    = "height"
	KeyPadding   = "padding"
	KeyFill      = "fill"
	KeyMarkers   = "markers"
	KeyAsset     = "asset"
	KeyTechnique = "technique"
	KeyScale     = "scale"
)

// NoAsset disables the overlay.
const NoAsset = "none"

// Settings fully describe one rendering.
type Settings struct {
	Kind    Kind    `toml:"chart"`
	Trend   Trend   `toml:"trend"`
	Points  int     `toml:"points"`
	Width   int     `toml:"width"`
	Height  int     `toml:"height"`
	Padding float64 `toml:"padding"`
	Fill    bool    `toml:"fill"`
	Markers bool    `toml:"markers"`

	// Asset is the overlay template file; empty or "none" disables the
	// overlay scene.
	Asset     string            `toml:"asset"`
	Technique overlay.Technique `toml:"technique"`
	// Scale is the overlay width relative to the bar width.
	Scale float64 `toml:"scale"`
}

// DefaultSettings returns a 7-point linear bar chart at 500x300.
func DefaultSettings() Settings {
	return Settings{
		Kind:    Bar,
		Trend:   Linear,
		Points:  7,
		Width:   500,
		Height:  300,
		Padding: 0.1,
		Scale:   1,
	}
}

// Validate checks ranges.
func (s Settings) Validate() error {
	switch s.Kind {
	case Bar, Line:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown chart type %q (must be bar or line)", s.Kind)
	}
	if _, err := ParseTrend(string(s.Trend)); err != nil {
		return err
	}
	if s.Points < MinPoints || s.Points > MaxPoints {
		return errors.New(errors.ErrCodeInvalidInput, "points must be between %d and %d, got %d", MinPoints, MaxPoints, s.Points)
	}
	if s.Width < 2*marginX || s.Height < 2*marginY {
		return errors.New(errors.ErrCodeInvalidInput, "chart size %dx%d is too small", s.Width, s.Height)
	}
	if s.Padding < 0 || s.Padding >= 1 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must be in [0, 1), got %v", s.Padding)
	}
	if s.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "overlay scale must be positive, got %v", s.Scale)
	}
	if s.Technique != "" {
		if _, err := overlay.ParseTechnique(string(s.Technique)); err != nil {
			return err
		}
	}
	return nil
}

// HasOverlay reports whether an overlay asset is selected.
func (s Settings) HasOverlay() bool {
	return s.Asset != "" && s.Asset != NoAsset
}

// Patch returns every setting as a patch.
func (s Settings) Patch() batch.Patch {
	return batch.Patch{
		KeyKind:      string(s.Kind),
		KeyTrend:     string(s.Trend),
		KeyPoints:    strconv.Itoa(s.Points),
		KeyWidth:     strconv.Itoa(s.Width),
		KeyHeight:    strconv.Itoa(s.Height),
		KeyPadding:   strconv.FormatFloat(s.Padding, 'f', -1, 64),
		KeyFill:      strconv.FormatBool(s.Fill),
		KeyMarkers:   strconv.FormatBool(s.Markers),
		KeyAsset:     s.Asset,
		KeyTechnique: string(s.Technique),
		KeyScale:     strconv.FormatFloat(s.Scale, 'f', -1, 64),
	}
}

// With returns s with the patch applied. Unknown keys and unparsable values
// are errors; s itself is never modified.
func (s Settings) With(p batch.Patch) (Settings, error) {
	for _, k := range p.Keys() {
		v := strings.TrimSpace(p[k])
		var err error
		switch k {
		case KeyKind:
			s.Kind = Kind(strings.ToLower(v))
		case KeyTrend:
			s.Trend, err = ParseTrend(v)
		case KeyPoints:
			s.Points, err = strconv.Atoi(v)
		case KeyWidth:
			s.Width, err = strconv.Atoi(v)
		case KeyHeight:
			s.Height, err = strconv.Atoi(v)
		case KeyPadding:
			s.Padding, err = strconv.ParseFloat(v, 64)
		case KeyFill:
			s.Fill, err = strconv.ParseBool(v)
		case KeyMarkers:
			s.Markers, err = strconv.ParseBool(v)
		case KeyAsset:
			s.Asset = v
		case KeyTechnique:
			s.Technique = ""
			if v != "" {
				s.Technique, err = overlay.ParseTechnique(v)
			}
		case KeyScale:
			s.Scale, err = strconv.ParseFloat(v, 64)
		default:
			return s, errors.New(errors.ErrCodeInvalidInput, "unknown chart setting %q", k)
		}
		if err != nil {
			return s, errors.Wrap(errors.ErrCodeInvalidInput, err, "setting %s=%q", k, v)
		}
	}
	return s, s.Validate()
}
