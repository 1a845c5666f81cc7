package scene

import "strings"

// Role classifies a primitive by what it represents in the chart.
type Role int

const (
	RoleNone Role = iota
	RoleBar
	RoleLine
	RoleArea
	RolePoint
	// RoleMark is an unlabeled data mark inside the chart's data group.
	RoleMark
	RoleAxis
)

var roleNames = map[Role]string{
	RoleNone:  "none",
	RoleBar:   "bar",
	RoleLine:  "line",
	RoleArea:  "area",
	RolePoint: "point",
	RoleMark:  "mark",
	RoleAxis:  "axis",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// IsData reports whether the role is a data mark (bar, line, area, point or
// an unlabeled mark in the data group).
func (r Role) IsData() bool {
	switch r {
	case RoleBar, RoleLine, RoleArea, RolePoint, RoleMark:
		return true
	}
	return false
}

// Class names the chart renderer uses for its groups.
const (
	ClassDataGroup = "chart-vis-group"
	ClassBarsGroup = "bars-group"
)

// shapes are the tags that draw geometry.
var shapes = map[string]bool{
	"path":     true,
	"line":     true,
	"rect":     true,
	"circle":   true,
	"ellipse":  true,
	"polygon":  true,
	"polyline": true,
}

// IsShape reports whether the tag draws geometry.
func IsShape(tag string) bool {
	return shapes[tag]
}

// Classify derives the role of a shape element from its own class tokens,
// then from the groups it is nested in. Non-shape elements are RoleNone.
func Classify(n *Node, path []*Node) Role {
	if !IsShape(n.Tag) {
		return RoleNone
	}
	for _, c := range n.Classes() {
		switch c {
		case "bar":
			return RoleBar
		case "line":
			return RoleLine
		case "area":
			return RoleArea
		case "point", "dot":
			return RolePoint
		case "domain", "tick":
			return RoleAxis
		}
	}
	for _, a := range path {
		for _, c := range a.Classes() {
			if strings.Contains(c, "axis") || c == "tick" {
				return RoleAxis
			}
		}
	}
	if len(path) > 0 {
		parent := path[len(path)-1]
		if parent.HasClass(ClassBarsGroup) && (n.Tag == "rect" || n.Tag == "path") {
			return RoleBar
		}
	}
	for _, a := range path {
		if a.HasClass(ClassDataGroup) && n.Tag == "path" {
			return RoleMark
		}
	}
	return RoleNone
}

// Primitive is a shape element with its ancestors and role.
type Primitive struct {
	Node   *Node
	Parent *Node
	Path   []*Node
	Role   Role
}

// Primitives lists every shape element under n in document order.
func Primitives(n *Node) []Primitive {
	var out []Primitive
	Walk(n, func(c *Node, path []*Node) bool {
		if IsShape(c.Tag) {
			p := Primitive{Node: c, Role: Classify(c, path)}
			p.Path = append([]*Node(nil), path...)
			if len(path) > 0 {
				p.Parent = path[len(path)-1]
			}
			out = append(out, p)
		}
		return true
	})
	return out
}
