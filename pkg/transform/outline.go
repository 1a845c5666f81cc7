package transform

import (
	"strings"

	"github.com/matzehuels/chartsnap/pkg/scene"
)

const background = "background-color: white;"

// whiteBackground adds a white background declaration to the root style.
func whiteBackground(root *scene.Node) {
	style := strings.TrimSpace(root.AttrOr("style", ""))
	if strings.Contains(style, "background") {
		return
	}
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	if style != "" {
		style += " "
	}
	root.SetAttr("style", style+background)
}

// outline gives n a black hairline stroke. Filled shapes keep their fill at
// a faint opacity, unfilled shapes lose any implicit fill.
func outline(n *scene.Node) {
	if s, ok := n.Attr("stroke"); !ok || s == "none" {
		n.SetAttr("stroke", "black")
	}
	n.SetAttrDefault("stroke-width", "1")
	if f, ok := n.Attr("fill"); ok && f != "none" {
		n.SetAttrDefault("fill-opacity", "0.1")
	} else {
		n.SetAttr("fill", "none")
	}
}
