package transform

import (
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Mode selects how primitives are restyled.
type Mode int

const (
	Outline Mode = iota
	ForcedFill
)

func (m Mode) String() string {
	switch m {
	case Outline:
		return "outline"
	case ForcedFill:
		return "filled"
	default:
		return "unknown"
	}
}

// ParseMode parses "outline" or "filled" (also "fill", "forced-fill").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "outline", "":
		return Outline, nil
	case "filled", "fill", "forced-fill":
		return ForcedFill, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidVariant, "unknown style mode %q (want outline or filled)", s)
}

// Layers selects which scenes of a snapshot are exported.
type Layers int

const (
	Primary Layers = iota
	Overlay
	Both
)

func (l Layers) String() string {
	switch l {
	case Primary:
		return "primary"
	case Overlay:
		return "overlay"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// ParseLayers parses "primary", "overlay" or "both".
func ParseLayers(s string) (Layers, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "":
		return Primary, nil
	case "overlay", "canny":
		return Overlay, nil
	case "both":
		return Both, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidVariant, "unknown layer selection %q (want primary, overlay or both)", s)
}

// Layer names one scene of a snapshot.
type Layer int

const (
	LayerPrimary Layer = iota
	LayerOverlay
)

// OverlaySuffix is appended to the file stem of overlay artifacts.
const OverlaySuffix = "-canny"

// Suffix returns the file stem suffix for the layer.
func (l Layer) Suffix() string {
	if l == LayerOverlay {
		return OverlaySuffix
	}
	return ""
}

func (l Layer) String() string {
	if l == LayerOverlay {
		return "overlay"
	}
	return "primary"
}

// Expand lists the layers selected, primary first.
func (l Layers) Expand() ([]Layer, error) {
	switch l {
	case Primary:
		return []Layer{LayerPrimary}, nil
	case Overlay:
		return []Layer{LayerOverlay}, nil
	case Both:
		return []Layer{LayerPrimary, LayerOverlay}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidVariant, "invalid layer selection %d", int(l))
	}
}

// Variant is the style mode and layer selection of one export.
type Variant struct {
	Mode   Mode
	Layers Layers
}

func (v Variant) String() string {
	return v.Mode.String() + "/" + v.Layers.String()
}

// ParseVariant parses "mode" or "mode/layers", e.g. "filled/both".
func ParseVariant(s string) (Variant, error) {
	mode, layers, _ := strings.Cut(s, "/")
	m, err := ParseMode(mode)
	if err != nil {
		return Variant{}, err
	}
	l, err := ParseLayers(layers)
	if err != nil {
		return Variant{}, err
	}
	return Variant{Mode: m, Layers: l}, nil
}

// Validate rejects out-of-range values.
func (v Variant) Validate() error {
	if v.Mode != Outline && v.Mode != ForcedFill {
		return errors.New(errors.ErrCodeInvalidVariant, "invalid style mode %d", int(v.Mode))
	}
	if _, err := v.Layers.Expand(); err != nil {
		return err
	}
	return nil
}
