package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
	"github.com/matzehuels/chartsnap/pkg/sink"
	"github.com/matzehuels/chartsnap/pkg/transform"
)

const lineChart = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="120">
  <g transform="translate(20,20)">
    <g class="x-axis" transform="translate(0,80)"><path class="domain" d="M0,0H160"/></g>
    <path class="line" d="M0,60L80,30L160,10" stroke="steelblue" fill="none"/>
  </g>
</svg>`

const edges = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="120">
  <path d="M10,10L190,110" stroke="black"/>
</svg>`

func live(t *testing.T, markup string) *scene.Live {
	t.Helper()
	s, err := scene.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return scene.NewLive(s)
}

func newJob(t *testing.T, opts Options, stem string, src Snapshot) Job {
	t.Helper()
	job, err := opts.Job(stem, src)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	return job
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"jpg", false},
		{"pdf", true},
		{"SVG", true}, // normalized by ValidateAndSetDefaults, not here
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if o.Format != "png" || o.Mode != "outline" || o.Layers != "primary" {
		t.Errorf("defaults = %q %q %q", o.Format, o.Mode, o.Layers)
	}
	if o.Scale != DefaultScale || o.Quality != DefaultQuality {
		t.Errorf("scale/quality = %v/%d", o.Scale, o.Quality)
	}

	// Idempotent.
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestOptionsNormalization(t *testing.T) {
	o := Options{Format: " JPEG ", Mode: "Filled", Layers: "BOTH"}
	v, err := o.Variant()
	if err != nil {
		t.Fatalf("Variant: %v", err)
	}
	if o.Format != "jpg" {
		t.Errorf("Format = %q, want jpg", o.Format)
	}
	if v.Mode != transform.ForcedFill || v.Layers != transform.Both {
		t.Errorf("Variant = %v", v)
	}
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"format", Options{Format: "pdf"}, errors.ErrCodeInvalidFormat},
		{"mode", Options{Mode: "neon"}, errors.ErrCodeInvalidVariant},
		{"layers", Options{Layers: "all"}, errors.ErrCodeInvalidVariant},
		{"scale", Options{Scale: -1}, errors.ErrCodeInvalidInput},
		{"quality", Options{Quality: 101}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRunSVGFilled(t *testing.T) {
	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)
	job := newJob(t, Options{Format: "svg", Mode: "filled"}, "line-linear", Snapshot{Primary: live(t, lineChart)})

	res, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Artifacts) != 1 || res.Artifacts[0].Name != "line-linear.svg" {
		t.Fatalf("artifacts = %+v", res.Artifacts)
	}
	data, ok := out.Get("line-linear.svg")
	if !ok {
		t.Fatal("line-linear.svg not delivered")
	}
	got := string(data)
	if !strings.HasPrefix(got, "<?xml") {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(got, `class="area"`) {
		t.Error("forced fill should add an area under the line")
	}
	if !strings.Contains(got, "M0,60L80,30L160,10 L 160,80 L 0,80 Z") {
		t.Errorf("area path not closed to the axis baseline:\n%s", got)
	}
}

func TestRunBothLayersPNG(t *testing.T) {
	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)
	src := Snapshot{Primary: live(t, lineChart), Overlay: live(t, edges)}
	job := newJob(t, Options{Format: "png", Layers: "both"}, "line-linear", src)

	res, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"line-linear.png", "line-linear-canny.png"}
	names := out.Names()
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if res.Artifacts[1].Layer != transform.LayerOverlay {
		t.Errorf("second artifact layer = %v", res.Artifacts[1].Layer)
	}

	data, _ := out.Get("line-linear.png")
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 240 {
		t.Errorf("size = %dx%d, want 400x240", b.Dx(), b.Dy())
	}
}

func TestRunMissingOverlayWritesNothing(t *testing.T) {
	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)
	job := newJob(t, Options{Layers: "both"}, "bar-linear", Snapshot{Primary: live(t, lineChart)})

	_, err := r.Run(context.Background(), job)
	if !errors.Is(err, errors.ErrCodeMissingScene) {
		t.Fatalf("error = %v, want MISSING_SCENE", err)
	}
	if n := len(out.Names()); n != 0 {
		t.Errorf("delivered %d artifacts, want 0", n)
	}
}

func TestRunInvalidStem(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	for _, stem := range []string{"", "   ", "a/b", ".."} {
		job := newJob(t, Options{}, stem, Snapshot{Primary: live(t, lineChart)})
		if _, err := r.Run(context.Background(), job); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Run(%q) error = %v, want INVALID_INPUT", stem, err)
		}
	}
}

func TestRunLeavesLiveSceneUntouched(t *testing.T) {
	l := live(t, lineChart)
	before := string(l.Markup())

	r := NewRunner(nil, nil, nil, nil)
	for _, mode := range []string{"outline", "filled"} {
		job := newJob(t, Options{Format: "svg", Mode: mode}, "line", Snapshot{Primary: l})
		if _, err := r.Run(context.Background(), job); err != nil {
			t.Fatalf("Run(%s): %v", mode, err)
		}
	}
	if after := string(l.Markup()); after != before {
		t.Errorf("live scene changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestRunFilledCompanion(t *testing.T) {
	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)
	job := newJob(t, Options{Format: "svg", Filled: true}, "line", Snapshot{Primary: live(t, lineChart)})

	res, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(res.Artifacts))
	}
	outline, _ := out.Get("line.svg")
	filled, ok := out.Get("line-filled.svg")
	if !ok {
		t.Fatal("line-filled.svg not delivered")
	}
	if strings.Contains(string(outline), `class="area"`) {
		t.Error("outline export should not contain a synthesized area")
	}
	if !strings.Contains(string(filled), `class="area"`) {
		t.Error("filled companion should contain a synthesized area")
	}
}

func TestRunCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, sink.NewMemorySink(), nil)
	opts := Options{Format: "svg"}
	job := newJob(t, opts, "line", Snapshot{Primary: live(t, lineChart)})

	first, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if first.Artifacts[0].CacheHit || !second.Artifacts[0].CacheHit {
		t.Errorf("cache hits = %v, %v; want false, true", first.Artifacts[0].CacheHit, second.Artifacts[0].CacheHit)
	}

	job.Refresh = true
	third, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if third.Artifacts[0].CacheHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunUsesJobRasterSettings(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out := sink.NewMemorySink()
	r := NewRunner(c, nil, out, nil)
	src := Snapshot{Primary: live(t, lineChart)}

	tests := []struct {
		opts   Options
		w, h   int
		alpha0 uint32
	}{
		{Options{Format: "png"}, 400, 240, 0xffff},
		{Options{Format: "png", Scale: 1, Transparent: true}, 200, 120, 0},
		{Options{Format: "png", Scale: 1}, 200, 120, 0xffff},
	}
	for _, tt := range tests {
		res, err := r.Run(context.Background(), newJob(t, tt.opts, "line", src))
		if err != nil {
			t.Fatal(err)
		}
		if res.Artifacts[0].CacheHit {
			t.Errorf("%+v: served from another job's cache entry", tt.opts)
		}
		data, _ := out.Get("line.png")
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("%+v: size = %dx%d, want %dx%d", tt.opts, b.Dx(), b.Dy(), tt.w, tt.h)
		}
		if _, _, _, a := img.At(0, 0).RGBA(); a != tt.alpha0 {
			t.Errorf("%+v: corner alpha = %d, want %d", tt.opts, a, tt.alpha0)
		}
	}
}

func TestRunBitmapPrimary(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)

	job := newJob(t, Options{Format: "png", Mode: "filled"}, "photo", Snapshot{PrimaryBitmap: img})
	if _, err := r.Run(context.Background(), job); err != nil {
		t.Fatalf("Run png: %v", err)
	}
	job = newJob(t, Options{Format: "svg"}, "photo", Snapshot{PrimaryBitmap: img})
	if _, err := r.Run(context.Background(), job); err != nil {
		t.Fatalf("Run svg: %v", err)
	}
	svg, _ := out.Get("photo.svg")
	if !strings.Contains(string(svg), "data:image/png;base64,") {
		t.Error("bitmap SVG export should embed the image as a data URI")
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := sink.NewMemorySink()
	r := NewRunner(nil, nil, out, nil)
	job := newJob(t, Options{Format: "svg"}, "line", Snapshot{Primary: live(t, lineChart)})
	if _, err := r.Run(ctx, job); err == nil {
		t.Error("expected error for canceled context")
	}
	if len(out.Names()) != 0 {
		t.Error("canceled job should not deliver")
	}
}
