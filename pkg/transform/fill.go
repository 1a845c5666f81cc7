package transform

import "github.com/matzehuels/chartsnap/pkg/scene"

// solid turns a data mark into a black silhouette.
func solid(p scene.Primitive) {
	n := p.Node
	n.SetAttr("fill", "black")
	n.SetAttr("fill-opacity", "1")
	switch p.Role {
	case scene.RoleLine, scene.RoleMark:
		if s, ok := n.Attr("stroke"); !ok || s == "none" {
			n.SetAttr("stroke", "black")
		}
	}
}
