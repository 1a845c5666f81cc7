package sink

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/url"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

// DefaultScale renders at twice the declared size.
const DefaultScale = 2.0

// RasterOption configures a [Rasterizer].
type RasterOption func(*Rasterizer)

// Rasterizer paints scenes onto RGBA surfaces.
type Rasterizer struct {
	scale      float64
	background bool
	quality    int
}

// WithScale sets the pixel density multiplier (default 2.0).
func WithScale(s float64) RasterOption {
	return func(r *Rasterizer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithBackground pre-fills the surface white when on (default on).
func WithBackground(on bool) RasterOption {
	return func(r *Rasterizer) { r.background = on }
}

// WithQuality sets the JPEG quality (default 92).
func WithQuality(q int) RasterOption {
	return func(r *Rasterizer) { r.quality = q }
}

// NewRasterizer returns a rasterizer with the given options applied.
func NewRasterizer(opts ...RasterOption) *Rasterizer {
	r := &Rasterizer{scale: DefaultScale, background: true, quality: DefaultJPEGQuality}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scale returns the configured scale.
func (r *Rasterizer) Scale() float64 { return r.scale }

// Quality returns the configured JPEG quality.
func (r *Rasterizer) Quality() int { return r.quality }

// Background reports whether surfaces are pre-filled white.
func (r *Rasterizer) Background() bool { return r.background }

// Scene rasterizes s. The scene is not modified.
func (r *Rasterizer) Scene(ctx context.Context, s *scene.Scene) (*image.RGBA, error) {
	if s == nil || s.Root == nil {
		return nil, errors.New(errors.ErrCodeMissingScene, "no scene to rasterize")
	}
	w, h, ok := s.Size()
	if !ok {
		return nil, errors.New(errors.ErrCodeRasterDecode, "scene has no usable width/height or viewBox")
	}

	images, err := embeddedImages(s)
	if err != nil {
		return nil, err
	}

	doc := s.Clone()
	doc.Root.DelAttr("style")
	if _, ok := doc.ViewBox(); !ok {
		doc.Root.SetAttr("viewBox", "0 0 "+format(w)+" "+format(h))
	}

	pw := int(math.Ceil(w * r.scale))
	ph := int(math.Ceil(h * r.scale))
	img := r.surface(pw, ph)
	sx, sy := float64(pw)/w, float64(ph)/h

	// Vectors between two embedded images form one pass, so images sit in
	// document order relative to the marks around them.
	for i := 0; i <= len(images); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			e := images[i-1]
			dst := image.Rect(
				int(math.Round(e.x*sx)), int(math.Round(e.y*sy)),
				int(math.Round((e.x+e.w)*sx)), int(math.Round((e.y+e.h)*sy)),
			)
			draw.CatmullRom.Scale(img, dst, e.img, e.img.Bounds(), draw.Over, nil)
		}
		layer := doc
		if len(images) > 0 {
			var ok bool
			if layer, ok = vectorPass(doc, i); !ok {
				continue
			}
		}
		icon, err := decodeIcon(ctx, layer.Markup())
		if err != nil {
			return nil, err
		}
		icon.SetTarget(0, 0, float64(pw), float64(ph))
		scanner := rasterx.NewScannerGV(pw, ph, img, img.Bounds())
		icon.Draw(rasterx.NewDasher(pw, ph, scanner), 1.0)
	}

	return img, nil
}

// Image rasterizes an element that is already a bitmap, scaling it onto a
// surface of the configured density.
func (r *Rasterizer) Image(ctx context.Context, src image.Image) (*image.RGBA, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeMissingScene, "no image to rasterize")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, errors.New(errors.ErrCodeRasterDecode, "image has no pixels")
	}
	pw := int(math.Ceil(float64(b.Dx()) * r.scale))
	ph := int(math.Ceil(float64(b.Dy()) * r.scale))
	img := r.surface(pw, ph)
	draw.CatmullRom.Scale(img, img.Bounds(), src, b, draw.Over, nil)
	return img, nil
}

func (r *Rasterizer) surface(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if r.background {
		draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	}
	return img
}

// decodeIcon parses markup with oksvg. Unsupported elements such as text are
// skipped rather than failing the whole scene.
func decodeIcon(ctx context.Context, markup []byte) (*oksvg.SvgIcon, error) {
	type result struct {
		icon *oksvg.SvgIcon
		err  error
	}
	done := make(chan result, 1)
	go func() {
		icon, err := oksvg.ReadIconStream(bytes.NewReader(markup), oksvg.IgnoreErrorMode)
		done <- result{icon, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, errors.Wrap(errors.ErrCodeRasterDecode, res.err, "decode scene markup")
		}
		return res.icon, nil
	}
}

// nonRendered subtrees hold definitions referenced from elsewhere. They are
// kept whole in every pass and never contribute images.
var nonRendered = map[string]bool{
	"defs":           true,
	"clipPath":       true,
	"mask":           true,
	"marker":         true,
	"pattern":        true,
	"symbol":         true,
	"linearGradient": true,
	"radialGradient": true,
}

func drawsVector(tag string) bool {
	return scene.IsShape(tag) || tag == "text" || tag == "use"
}

// vectorPass returns a copy of doc holding only the drawing elements that
// follow the pass-th embedded image and precede the next one. ok is false
// when the pass draws nothing.
func vectorPass(doc *scene.Scene, pass int) (*scene.Scene, bool) {
	out := doc.Clone()
	seen, drawn := 0, false
	var prune func(n *scene.Node)
	prune = func(n *scene.Node) {
		kept := n.Children[:0]
		for _, c := range n.Children {
			switch {
			case c.IsText() || nonRendered[c.Tag]:
			case c.Tag == "image":
				seen++
				continue
			case drawsVector(c.Tag):
				if seen != pass {
					continue
				}
				drawn = true
			default:
				prune(c)
			}
			kept = append(kept, c)
		}
		n.Children = kept
	}
	prune(out.Root)
	return out, drawn
}

type placedImage struct {
	img        image.Image
	x, y, w, h float64
}

// embeddedImages decodes every <image> element in document order with its
// position in root user space. Only data URIs are accepted.
func embeddedImages(s *scene.Scene) ([]placedImage, error) {
	var (
		out []placedImage
		err error
	)
	var visit func(n *scene.Node, dx, dy float64)
	visit = func(n *scene.Node, dx, dy float64) {
		if err != nil || n.IsText() || nonRendered[n.Tag] {
			return
		}
		if tx, ty, ok := scene.Translate(n.AttrOr("transform", "")); ok {
			dx, dy = dx+tx, dy+ty
		}
		if n.Tag == "image" {
			var p placedImage
			p, err = decodeImageElement(n)
			if err != nil {
				return
			}
			p.x += dx
			p.y += dy
			out = append(out, p)
			return
		}
		for _, c := range n.Children {
			visit(c, dx, dy)
		}
	}
	visit(s.Root, 0, 0)
	return out, err
}

// Href returns the link of an image element, preferring href over the
// legacy xlink:href.
func Href(n *scene.Node) string {
	if v, ok := n.Attr("href"); ok {
		return v
	}
	return n.AttrOr("xlink:href", "")
}

func decodeImageElement(n *scene.Node) (placedImage, error) {
	href := Href(n)
	data, err := DecodeDataURI(href)
	if err != nil {
		return placedImage{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return placedImage{}, errors.Wrap(errors.ErrCodeRasterDecode, err, "decode embedded image")
	}

	p := placedImage{img: img}
	p.x, _ = scene.Length(n.AttrOr("x", "0"))
	p.y, _ = scene.Length(n.AttrOr("y", "0"))
	var ok bool
	if p.w, ok = scene.Length(n.AttrOr("width", "")); !ok {
		p.w = float64(img.Bounds().Dx())
	}
	if p.h, ok = scene.Length(n.AttrOr("height", "")); !ok {
		p.h = float64(img.Bounds().Dy())
	}
	return p, nil
}

// IsDataURI reports whether href embeds its content.
func IsDataURI(href string) bool {
	return strings.HasPrefix(strings.TrimSpace(href), "data:")
}

// DecodeDataURI returns the payload of a data URI, base64 or percent-encoded.
func DecodeDataURI(href string) ([]byte, error) {
	href = strings.TrimSpace(href)
	if !IsDataURI(href) {
		return nil, errors.New(errors.ErrCodeRasterDecode, "image reference %q is not embedded", clip(href))
	}
	meta, payload, ok := strings.Cut(href[len("data:"):], ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeRasterDecode, "malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRasterDecode, err, "decode data URI")
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterDecode, err, "decode data URI")
	}
	return []byte(data), nil
}

// EncodeDataURI embeds data with the given MIME type.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func clip(s string) string {
	const max = 48
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
