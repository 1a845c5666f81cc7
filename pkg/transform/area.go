package transform

import (
	"strconv"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/scene"
	"github.com/matzehuels/chartsnap/pkg/scene/pathdata"
)

// DefaultMarginTop is used when the chart's margin group has no offset.
const DefaultMarginTop = 20

// SynthesizeArea closes a line's path data down to the baseline:
//
//	<d> L lastX,baseline L firstX,baseline Z
//
// ok is false when the x extent of d cannot be determined.
func SynthesizeArea(d string, baseline float64) (string, bool) {
	first, last, ok := pathdata.XExtent(d)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(d))
	b.WriteString(" L ")
	b.WriteString(format(last))
	b.WriteByte(',')
	b.WriteString(format(baseline))
	b.WriteString(" L ")
	b.WriteString(format(first))
	b.WriteByte(',')
	b.WriteString(format(baseline))
	b.WriteString(" Z")
	return b.String(), true
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Baseline finds the y coordinate of the x-axis in the data group's frame.
// A group classed as an x-axis wins; otherwise the first group translated by
// (0, y) other than the outer margin group is used. Without either, the inner
// height is the root height minus twice the top margin. ok is false when no
// source is available.
func Baseline(s *scene.Scene) (float64, bool) {
	var groups []*scene.Node
	scene.Walk(s.Root, func(n *scene.Node, _ []*scene.Node) bool {
		if n.Tag == "g" {
			groups = append(groups, n)
		}
		return true
	})

	for _, g := range groups {
		if !isXAxis(g) {
			continue
		}
		if _, y, ok := scene.Translate(g.AttrOr("transform", "")); ok && y > 0 {
			return y, true
		}
	}

	marginTop := float64(DefaultMarginTop)
	for i, g := range groups {
		x, y, ok := scene.Translate(g.AttrOr("transform", ""))
		if !ok {
			continue
		}
		if i == 0 {
			if y > 0 {
				marginTop = y
			}
			continue
		}
		if x == 0 && y > 0 {
			return y, true
		}
	}

	if h, ok := s.Height(); ok && h-2*marginTop > 0 {
		return h - 2*marginTop, true
	}
	return 0, false
}

func isXAxis(n *scene.Node) bool {
	for _, c := range n.Classes() {
		switch c {
		case "x-axis", "axis-x", "axis--x", "xAxis", "x":
			return true
		}
	}
	return false
}

// areaFor builds the synthesized area element for a line path.
func areaFor(line *scene.Node, baseline float64) (*scene.Node, bool) {
	d, ok := SynthesizeArea(line.AttrOr("d", ""), baseline)
	if !ok {
		return nil, false
	}
	area := scene.NewElement("path",
		scene.Attr{Name: "class", Value: "area"},
		scene.Attr{Name: "d", Value: d},
		scene.Attr{Name: "fill", Value: "black"},
		scene.Attr{Name: "fill-opacity", Value: "1"},
		scene.Attr{Name: "stroke", Value: "none"},
	)
	if t, ok := line.Attr("transform"); ok {
		area.SetAttr("transform", t)
	}
	return area, true
}
