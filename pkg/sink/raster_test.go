package sink

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

func mustParse(t *testing.T, markup string) *scene.Scene {
	t.Helper()
	s, err := scene.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r < 0x2000 && g < 0x2000 && b < 0x2000
}

func isWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r > 0xf000 && g > 0xf000 && b > 0xf000 && a > 0xf000
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRasterizeScene(t *testing.T) {
	s := mustParse(t, `<svg width="10" height="10"><rect x="0" y="0" width="5" height="10" fill="black"/><text>label</text></svg>`)
	r := NewRasterizer()

	img, err := r.Scene(context.Background(), s)
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("bounds = %v, want 20x20 at default scale", b)
	}
	if !isDark(img.At(4, 10)) {
		t.Errorf("pixel inside bar = %v, want black", img.At(4, 10))
	}
	if !isWhite(img.At(15, 10)) {
		t.Errorf("pixel outside bar = %v, want white background", img.At(15, 10))
	}
}

func TestRasterizeTransparentBackground(t *testing.T) {
	s := mustParse(t, `<svg width="4" height="4"></svg>`)
	img, err := NewRasterizer(WithBackground(false), WithScale(1)).Scene(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a != 0 {
		t.Errorf("alpha = %d, want transparent", a)
	}
}

func TestRasterizeEmbeddedImage(t *testing.T) {
	uri := EncodeDataURI("image/png", redPNG(t))
	s := mustParse(t, `<svg xmlns:xlink="http://www.w3.org/1999/xlink" width="10" height="10"><g transform="translate(5,0)"><image x="0" y="0" width="5" height="10" xlink:href="`+uri+`"/></g></svg>`)

	img, err := NewRasterizer().Scene(context.Background(), s)
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	r, g, b, _ := img.At(15, 10).RGBA()
	if r < 0xf000 || g > 0x1000 || b > 0x1000 {
		t.Errorf("pixel in image = %v, want red", img.At(15, 10))
	}
	if !isWhite(img.At(4, 10)) {
		t.Errorf("pixel outside image = %v, want white", img.At(4, 10))
	}
}

func TestRasterizeImagesInDocumentOrder(t *testing.T) {
	uri := EncodeDataURI("image/png", redPNG(t))
	img := `<image x="0" y="0" width="10" height="10" href="` + uri + `"/>`
	bar := `<rect x="0" y="0" width="5" height="10" fill="black"/>`
	isRed := func(c color.Color) bool {
		r, g, b, _ := c.RGBA()
		return r > 0xf000 && g < 0x1000 && b < 0x1000
	}

	tests := []struct {
		name     string
		body     string
		left     func(color.Color) bool
		right    func(color.Color) bool
		leftWant string
	}{
		{"image then mark", img + bar, isDark, isRed, "black"},
		{"mark then image", bar + img, isRed, isRed, "red"},
		{"mark between images", img + bar + `<g>` + img + `</g>`, isRed, isRed, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, `<svg width="10" height="10">`+tt.body+`</svg>`)
			out, err := NewRasterizer().Scene(context.Background(), s)
			if err != nil {
				t.Fatalf("Scene: %v", err)
			}
			if !tt.left(out.At(4, 10)) {
				t.Errorf("left pixel = %v, want %s", out.At(4, 10), tt.leftWant)
			}
			if !tt.right(out.At(15, 10)) {
				t.Errorf("right pixel = %v, want red", out.At(15, 10))
			}
		})
	}
}

func TestVectorPassKeepsDefinitions(t *testing.T) {
	s := mustParse(t, `<svg width="4" height="4"><defs><path id="p" d="M0 0H4"/></defs><rect width="1" height="1"/><image href="data:,"/><circle r="1"/></svg>`)

	first, ok := vectorPass(s, 0)
	if !ok {
		t.Fatal("first pass should draw the rect")
	}
	markup := string(first.Markup())
	for _, want := range []string{"<defs>", "<rect", `id="p"`} {
		if !strings.Contains(markup, want) {
			t.Errorf("first pass missing %s: %s", want, markup)
		}
	}
	for _, unwanted := range []string{"<circle", "<image"} {
		if strings.Contains(markup, unwanted) {
			t.Errorf("first pass should not hold %s: %s", unwanted, markup)
		}
	}

	second, ok := vectorPass(s, 1)
	if !ok || !strings.Contains(string(second.Markup()), "<circle") {
		t.Errorf("second pass = %s, %v; want the circle", second.Markup(), ok)
	}
	if _, ok := vectorPass(s, 2); ok {
		t.Error("pass past the last image should draw nothing")
	}
	if !strings.Contains(string(s.Markup()), "<circle") {
		t.Error("vectorPass modified the source scene")
	}
}

func TestRasterizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		code   errors.Code
	}{
		{"no size", `<svg><rect width="1" height="1"/></svg>`, errors.ErrCodeRasterDecode},
		{"external image", `<svg width="4" height="4"><image href="https://example.com/a.png" width="4" height="4"/></svg>`, errors.ErrCodeRasterDecode},
		{"bad image data", `<svg width="4" height="4"><image href="data:image/png;base64,AAAA" width="4" height="4"/></svg>`, errors.ErrCodeRasterDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRasterizer().Scene(context.Background(), mustParse(t, tt.markup))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := NewRasterizer().Scene(context.Background(), nil); !errors.Is(err, errors.ErrCodeMissingScene) {
		t.Errorf("nil scene error = %v, want MISSING_SCENE", err)
	}
}

func TestRasterizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := mustParse(t, `<svg width="4" height="4"/>`)
	if _, err := NewRasterizer().Scene(ctx, s); err == nil {
		t.Log("decode finished before cancellation was observed")
	}
	if _, err := NewRasterizer().Image(ctx, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != context.Canceled {
		t.Errorf("Image() error = %v, want context.Canceled", err)
	}
}

func TestRasterizeImage(t *testing.T) {
	src, err := png.Decode(bytes.NewReader(redPNG(t)))
	if err != nil {
		t.Fatal(err)
	}
	img, err := NewRasterizer(WithScale(3)).Image(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Errorf("bounds = %v, want 6x6", b)
	}
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for _, f := range []Format{FormatPNG, FormatJPEG} {
		data, err := Encode(img, f, 0)
		if err != nil {
			t.Fatalf("Encode(%s): %v", f, err)
		}
		if _, name, err := image.Decode(bytes.NewReader(data)); err != nil || (name != "png" && name != "jpeg") {
			t.Errorf("Encode(%s) produced %q, %v", f, name, err)
		}
	}
	if _, err := Encode(img, FormatSVG, 0); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Encode(svg) error = %v, want INVALID_FORMAT", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"PNG": FormatPNG, "jpeg": FormatJPEG, "jpg": FormatJPEG, " svg ": FormatSVG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(pdf) error = %v", err)
	}
}

func TestDataURI(t *testing.T) {
	data, err := DecodeDataURI("data:text/plain,hello%20world")
	if err != nil || string(data) != "hello world" {
		t.Errorf("DecodeDataURI(plain) = %q, %v", data, err)
	}
	round, err := DecodeDataURI(EncodeDataURI("application/octet-stream", []byte{1, 2, 3}))
	if err != nil || !bytes.Equal(round, []byte{1, 2, 3}) {
		t.Errorf("base64 round trip = %v, %v", round, err)
	}
	if _, err := DecodeDataURI("file:///etc/passwd"); !errors.Is(err, errors.ErrCodeRasterDecode) {
		t.Errorf("non-data URI error = %v", err)
	}
}
