package scene

import (
	"math"
	"strconv"

	"github.com/matzehuels/chartsnap/pkg/scene/pathdata"
)

// Box is an axis-aligned bounding box.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

func emptyBox() Box {
	return Box{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func (b *Box) add(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

func (b Box) empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// BBox estimates the bounding box of all drawn geometry. Group translations
// are applied; other transforms are ignored. Curve control points are
// included, so the box may be slightly larger than the ink. Stroke widths
// are added around each shape.
func (s *Scene) BBox() (Box, bool) {
	box := emptyBox()
	var visit func(n *Node, dx, dy float64)
	visit = func(n *Node, dx, dy float64) {
		if n.IsText() {
			return
		}
		if tx, ty, ok := Translate(n.AttrOr("transform", "")); ok {
			dx, dy = dx+tx, dy+ty
		}
		pad := 0.0
		if sw, ok := number(n, "stroke-width"); ok {
			pad = sw / 2
		}
		for _, p := range shapePoints(n) {
			box.add(p.X+dx-pad, p.Y+dy-pad)
			box.add(p.X+dx+pad, p.Y+dy+pad)
		}
		for _, c := range n.Children {
			visit(c, dx, dy)
		}
	}
	visit(s.Root, 0, 0)
	if box.empty() {
		return Box{}, false
	}
	return box, true
}

func number(n *Node, name string) (float64, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func num(n *Node, name string) float64 {
	f, _ := number(n, name)
	return f
}

func shapePoints(n *Node) []pathdata.Point {
	switch n.Tag {
	case "rect", "image":
		x, y := num(n, "x"), num(n, "y")
		w, h := num(n, "width"), num(n, "height")
		return []pathdata.Point{{X: x, Y: y}, {X: x + w, Y: y + h}}
	case "circle":
		cx, cy, r := num(n, "cx"), num(n, "cy"), num(n, "r")
		return []pathdata.Point{{X: cx - r, Y: cy - r}, {X: cx + r, Y: cy + r}}
	case "ellipse":
		cx, cy, rx, ry := num(n, "cx"), num(n, "cy"), num(n, "rx"), num(n, "ry")
		return []pathdata.Point{{X: cx - rx, Y: cy - ry}, {X: cx + rx, Y: cy + ry}}
	case "line":
		return []pathdata.Point{{X: num(n, "x1"), Y: num(n, "y1")}, {X: num(n, "x2"), Y: num(n, "y2")}}
	case "polygon", "polyline":
		cmds, err := pathdata.Parse("M" + n.AttrOr("points", ""))
		if err != nil {
			return nil
		}
		return pathdata.Vertices(cmds)
	case "path":
		cmds, err := pathdata.Parse(n.AttrOr("d", ""))
		if err != nil {
			return nil
		}
		return pathdata.Vertices(cmds)
	}
	return nil
}
