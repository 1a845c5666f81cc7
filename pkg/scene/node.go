package scene

import "strings"

// Attr is one element attribute. Name keeps any namespace prefix as written
// in the source markup (for example "xlink:href").
type Attr struct {
	Name  string
	Value string
}

// Node is an element of the scene graph. Text nodes have an empty Tag and
// carry their character data in Text.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// NewElement creates an element node with the given attributes in order.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when it is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr replaces the attribute value in place, or appends the attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// SetAttrDefault sets the attribute only when it is absent.
func (n *Node) SetAttrDefault(name, value string) {
	if _, ok := n.Attr(name); !ok {
		n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	}
}

// DelAttr removes the attribute if present.
func (n *Node) DelAttr(name string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Classes returns the whitespace separated tokens of the class attribute.
func (n *Node) Classes() []string {
	return strings.Fields(n.AttrOr("class", ""))
}

// HasClass reports whether the class attribute contains the token.
func (n *Node) HasClass(token string) bool {
	for _, c := range n.Classes() {
		if c == token {
			return true
		}
	}
	return false
}

// Elements returns the element children of n, skipping text nodes.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// InsertBefore inserts child into n immediately before ref. When ref is not
// a child of n, child is appended.
func (n *Node) InsertBefore(child, ref *Node) {
	for i, c := range n.Children {
		if c == ref {
			n.Children = append(n.Children, nil)
			copy(n.Children[i+1:], n.Children[i:])
			n.Children[i] = child
			return
		}
	}
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n. The copy shares no slices with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = make([]Attr, len(n.Attrs))
		copy(out.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// VisitFunc is called for every element during [Walk]. path holds the
// ancestors of n from the root down to n's parent. Returning false skips
// n's subtree.
type VisitFunc func(n *Node, path []*Node) bool

// Walk visits n and its element descendants in document order.
func Walk(n *Node, fn VisitFunc) {
	walk(n, nil, fn)
}

func walk(n *Node, path []*Node, fn VisitFunc) {
	if n == nil || n.IsText() {
		return
	}
	if !fn(n, path) {
		return
	}
	path = append(path, n)
	// Children may be inserted by fn on an ancestor; iterate a snapshot.
	children := append([]*Node(nil), n.Children...)
	for _, c := range children {
		walk(c, path, fn)
	}
}

// Find returns every element for which match returns true, in document order.
func Find(n *Node, match func(n *Node, path []*Node) bool) []*Node {
	var out []*Node
	Walk(n, func(c *Node, path []*Node) bool {
		if match(c, path) {
			out = append(out, c)
		}
		return true
	})
	return out
}
