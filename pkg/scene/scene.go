package scene

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Namespace URIs written on standalone documents.
const (
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
)

// Scene is a parsed vector scene rooted at an svg element.
type Scene struct {
	Root *Node
}

// Parse reads SVG markup into a scene. Comments, processing instructions and
// doctype declarations are dropped; whitespace-only text is discarded.
func Parse(r io.Reader) (*Scene, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scene markup")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New(errors.ErrCodeInvalidInput, "scene markup has more than one root element")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "unbalanced end element %q", qualified(t.Name))
			}
			if open := stack[len(stack)-1].Tag; open != qualified(t.Name) {
				return nil, errors.New(errors.ErrCodeInvalidInput, "element <%s> closed by </%s>", open, qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 || len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Text: string(t)})
		}
	}

	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene markup is empty")
	}
	if len(stack) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	if root.Tag != "svg" && !strings.HasSuffix(root.Tag, ":svg") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene root is <%s>, want <svg>", root.Tag)
	}
	return &Scene{Root: root}, nil
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(s string) (*Scene, error) {
	return Parse(strings.NewReader(s))
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Clone returns a deep, independently owned copy of the scene.
func (s *Scene) Clone() *Scene {
	return &Scene{Root: s.Root.Clone()}
}

// Width returns the declared width of the root element in user units.
func (s *Scene) Width() (float64, bool) {
	return Length(s.Root.AttrOr("width", ""))
}

// Height returns the declared height of the root element in user units.
func (s *Scene) Height() (float64, bool) {
	return Length(s.Root.AttrOr("height", ""))
}

// ViewBox returns the root viewBox as min-x, min-y, width, height.
func (s *Scene) ViewBox() ([4]float64, bool) {
	var vb [4]float64
	f := strings.FieldsFunc(s.Root.AttrOr("viewBox", ""), func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(f) != 4 {
		return vb, false
	}
	for i, v := range f {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return vb, false
		}
		vb[i] = x
	}
	return vb, vb[2] > 0 && vb[3] > 0
}

// Size returns the scene dimensions from width/height, falling back to the
// viewBox when either is missing.
func (s *Scene) Size() (w, h float64, ok bool) {
	w, wok := s.Width()
	h, hok := s.Height()
	if wok && hok {
		return w, h, true
	}
	if vb, ok := s.ViewBox(); ok {
		if !wok {
			w = vb[2]
		}
		if !hok {
			h = vb[3]
		}
		return w, h, true
	}
	return 0, 0, false
}

// Length parses an SVG length in user units. Percentages and empty strings
// are rejected; a "px" suffix is accepted.
func Length(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// Translate extracts the offset of a transform attribute that starts with
// translate(x[,y]). Other transforms report ok=false.
func Translate(transform string) (x, y float64, ok bool) {
	t := strings.TrimSpace(transform)
	if !strings.HasPrefix(t, "translate(") {
		return 0, 0, false
	}
	end := strings.IndexByte(t, ')')
	if end < 0 {
		return 0, 0, false
	}
	args := strings.FieldsFunc(t[len("translate("):end], func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(args) == 0 || len(args) > 2 {
		return 0, 0, false
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, false
	}
	if len(args) == 2 {
		if y, err = strconv.ParseFloat(args[1], 64); err != nil {
			return 0, 0, false
		}
	}
	return x, y, true
}

// Encode writes the scene as markup. Attribute order is preserved and the
// output contains nothing that varies between calls.
func (s *Scene) Encode(w io.Writer) error {
	var buf bytes.Buffer
	encodeNode(&buf, s.Root)
	_, err := w.Write(buf.Bytes())
	return err
}

// Markup returns the encoded scene.
func (s *Scene) Markup() []byte {
	var buf bytes.Buffer
	encodeNode(&buf, s.Root)
	return buf.Bytes()
}

func encodeNode(buf *bytes.Buffer, n *Node) {
	if n.IsText() {
		_ = xml.EscapeText(buf, []byte(n.Text))
		return
	}
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.Children {
		encodeNode(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}
