package transform

import (
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

// Result summarizes what Apply changed.
type Result struct {
	Styled         int    // Primitives restyled
	AreasAdded     int    // Areas synthesized under lines
	AreaSkipReason string // Why a line got no area, if one was wanted
}

// Apply restyles s in place for the given mode. s must be a clone owned by
// the caller.
func Apply(s *scene.Scene, mode Mode) (Result, error) {
	if s == nil || s.Root == nil {
		return Result{}, errors.New(errors.ErrCodeMissingScene, "no scene to transform")
	}
	switch mode {
	case Outline:
		return applyOutline(s), nil
	case ForcedFill:
		return applyForcedFill(s), nil
	default:
		return Result{}, errors.New(errors.ErrCodeInvalidVariant, "invalid style mode %d", int(mode))
	}
}

func applyOutline(s *scene.Scene) Result {
	var res Result
	whiteBackground(s.Root)
	for _, p := range scene.Primitives(s.Root) {
		outline(p.Node)
		res.Styled++
	}
	return res
}

func applyForcedFill(s *scene.Scene) Result {
	var res Result
	whiteBackground(s.Root)

	prims := scene.Primitives(s.Root)
	hasArea := false
	for _, p := range prims {
		if p.Role == scene.RoleArea {
			hasArea = true
			break
		}
	}

	if !hasArea {
		added, reason := synthesizeAreas(s, prims)
		res.AreasAdded, res.AreaSkipReason = added, reason
		if added > 0 {
			prims = scene.Primitives(s.Root)
		}
	}

	for _, p := range prims {
		if p.Role.IsData() {
			solid(p)
		} else {
			outline(p.Node)
		}
		res.Styled++
	}
	return res
}

func synthesizeAreas(s *scene.Scene, prims []scene.Primitive) (int, string) {
	var lines []scene.Primitive
	for _, p := range prims {
		if p.Role == scene.RoleLine && p.Node.Tag == "path" && p.Parent != nil {
			lines = append(lines, p)
		}
	}
	if len(lines) == 0 {
		return 0, ""
	}

	baseline, ok := Baseline(s)
	if !ok {
		return 0, "baseline not derivable"
	}

	added := 0
	reason := ""
	for _, l := range lines {
		area, ok := areaFor(l.Node, baseline)
		if !ok {
			reason = "line path data has no x extent"
			continue
		}
		l.Parent.InsertBefore(area, l.Node)
		added++
	}
	return added, reason
}
