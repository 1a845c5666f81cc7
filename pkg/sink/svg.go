package sink

import (
	"bytes"
	"strconv"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"

// SerializeSVG writes s as a standalone SVG document. The scene is not
// modified.
func SerializeSVG(s *scene.Scene) ([]byte, error) {
	if s == nil || s.Root == nil {
		return nil, errors.New(errors.ErrCodeMissingScene, "no scene to serialize")
	}
	doc := s.Clone()
	Standalone(doc)

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	if err := doc.Encode(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode svg")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Standalone prepares doc for use outside the page it was rendered in:
// namespaces are declared, missing dimensions come from the bounding box,
// scripts and external image references are removed.
func Standalone(doc *scene.Scene) {
	root := doc.Root
	root.SetAttrDefault("xmlns", scene.NamespaceSVG)

	prune(root)
	if hasXLink(root) {
		root.SetAttrDefault("xmlns:xlink", scene.NamespaceXLink)
	}

	_, wok := doc.Width()
	_, hok := doc.Height()
	if wok && hok {
		return
	}

	if vb, ok := doc.ViewBox(); ok {
		if !wok {
			root.SetAttr("width", format(vb[2]))
		}
		if !hok {
			root.SetAttr("height", format(vb[3]))
		}
		return
	}

	box, ok := doc.BBox()
	if !ok {
		return
	}
	w, h := box.MaxX, box.MaxY
	if box.MinX < 0 || box.MinY < 0 {
		w, h = box.Width(), box.Height()
		root.SetAttr("viewBox", format(box.MinX)+" "+format(box.MinY)+" "+format(w)+" "+format(h))
	} else {
		root.SetAttr("viewBox", "0 0 "+format(w)+" "+format(h))
	}
	if !wok {
		root.SetAttr("width", format(w))
	}
	if !hok {
		root.SetAttr("height", format(h))
	}
}

func prune(n *scene.Node) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Tag == "script" || c.Tag == "foreignObject" {
			continue
		}
		if c.Tag == "image" && !IsDataURI(Href(c)) {
			continue
		}
		prune(c)
		kept = append(kept, c)
	}
	n.Children = kept
}

func hasXLink(n *scene.Node) bool {
	for _, a := range n.Attrs {
		if len(a.Name) > 6 && a.Name[:6] == "xlink:" {
			return true
		}
	}
	for _, c := range n.Children {
		if hasXLink(c) {
			return true
		}
	}
	return false
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
