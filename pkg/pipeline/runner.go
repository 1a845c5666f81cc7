package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/observability"
	"github.com/matzehuels/chartsnap/pkg/scene"
	"github.com/matzehuels/chartsnap/pkg/sink"
	"github.com/matzehuels/chartsnap/pkg/transform"
)

// Runner executes export jobs with caching. It holds no per-job state, so
// one Runner can serve many jobs; the live scenes it reads are only cloned.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Sink       sink.Sink
	Rasterizer *sink.Rasterizer
	Logger     *log.Logger
}

// NewRunner creates a runner delivering to out.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, out sink.Sink, logger *log.Logger, opts ...sink.RasterOption) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if out == nil {
		out = sink.NewMemorySink()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Sink:       out,
		Rasterizer: sink.NewRasterizer(opts...),
		Logger:     logger,
	}
}

// Artifact is one delivered file.
type Artifact struct {
	Name     string          // File name, e.g. "bar-linear-canny.png"
	Location string          // Where the sink stored it
	Layer    transform.Layer // Source layer
	Mode     transform.Mode  // Style mode applied
	Size     int             // Bytes
	CacheHit bool            // Whether the bytes came from the cache
}

// Result contains the outputs of one job.
type Result struct {
	Artifacts []Artifact
	Duration  time.Duration
}

// pass is one artifact to produce.
type pass struct {
	layer  transform.Layer
	mode   transform.Mode
	suffix string
}

// Run executes the job. Every requested layer is checked before anything is
// written, so a missing scene produces no partial output.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	stem := strings.TrimSpace(job.Stem)
	observability.Export().OnExportStart(ctx, stem, string(job.Format), job.Variant.String())

	res, err := r.run(ctx, stem, job)
	n := 0
	if res != nil {
		res.Duration = time.Since(start)
		n = len(res.Artifacts)
	}
	observability.Export().OnExportComplete(ctx, stem, string(job.Format), n, time.Since(start), err)
	return res, err
}

func (r *Runner) run(ctx context.Context, stem string, job Job) (*Result, error) {
	if err := errors.ValidateStem(stem); err != nil {
		return nil, err
	}
	if err := ValidateFormat(string(job.Format)); err != nil {
		return nil, err
	}
	if err := job.Variant.Validate(); err != nil {
		return nil, err
	}
	passes, err := plan(job)
	if err != nil {
		return nil, err
	}
	for _, p := range passes {
		if !hasLayer(job.Source, p.layer) {
			return nil, errors.New(errors.ErrCodeMissingScene, "no %s scene to export for %q", p.layer, stem)
		}
	}

	rz := r.rasterizer(job)
	res := &Result{}
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, hit, err := r.produce(ctx, rz, stem, job, p)
		if err != nil {
			return res, err
		}
		name := stem + p.suffix + "." + job.Format.Ext()
		loc, err := r.Sink.Deliver(ctx, name, data)
		if err != nil {
			return res, err
		}
		res.Artifacts = append(res.Artifacts, Artifact{
			Name:     name,
			Location: loc,
			Layer:    p.layer,
			Mode:     p.mode,
			Size:     len(data),
			CacheHit: hit,
		})
		r.Logger.Debug("delivered artifact", "name", name, "bytes", len(data), "cached", hit)
	}
	return res, nil
}

func plan(job Job) ([]pass, error) {
	layers, err := job.Variant.Layers.Expand()
	if err != nil {
		return nil, err
	}
	var passes []pass
	for _, l := range layers {
		passes = append(passes, pass{layer: l, mode: job.Variant.Mode, suffix: l.Suffix()})
		if l == transform.LayerPrimary && job.Filled && job.Variant.Mode != transform.ForcedFill {
			passes = append(passes, pass{layer: l, mode: transform.ForcedFill, suffix: FilledSuffix})
		}
	}
	return passes, nil
}

func hasLayer(src Snapshot, l transform.Layer) bool {
	switch l {
	case transform.LayerPrimary:
		return src.Primary.Present() || src.PrimaryBitmap != nil
	case transform.LayerOverlay:
		return src.Overlay.Present()
	}
	return false
}

// rasterizer returns the runner's rasterizer with the job's settings applied.
func (r *Runner) rasterizer(job Job) *sink.Rasterizer {
	if len(job.Raster) == 0 {
		return r.Rasterizer
	}
	opts := []sink.RasterOption{
		sink.WithScale(r.Rasterizer.Scale()),
		sink.WithQuality(r.Rasterizer.Quality()),
		sink.WithBackground(r.Rasterizer.Background()),
	}
	return sink.NewRasterizer(append(opts, job.Raster...)...)
}

// produce returns the encoded bytes for one pass, from cache when possible.
func (r *Runner) produce(ctx context.Context, rz *sink.Rasterizer, stem string, job Job, p pass) ([]byte, bool, error) {
	if p.layer == transform.LayerPrimary && !job.Source.Primary.Present() {
		return produceBitmap(ctx, rz, job.Source.PrimaryBitmap, job.Format)
	}

	live := job.Source.Primary
	if p.layer == transform.LayerOverlay {
		live = job.Source.Overlay
	}
	clone := live.Clone()
	if clone == nil {
		return nil, false, errors.New(errors.ErrCodeMissingScene, "%s scene disappeared during export", p.layer)
	}

	key := r.Keyer.ArtifactKey(cache.Hash(clone.Markup()), keyOpts(rz, p.mode, job.Format))
	if !job.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	tr, err := transform.Apply(clone, p.mode)
	if err != nil {
		return nil, false, err
	}
	if tr.AreaSkipReason != "" {
		observability.Export().OnAreaSkipped(ctx, stem, tr.AreaSkipReason)
		r.Logger.Debug("area not synthesized", "stem", stem, "reason", tr.AreaSkipReason)
	}

	data, err := encode(ctx, rz, clone, job.Format)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

func keyOpts(rz *sink.Rasterizer, mode transform.Mode, f sink.Format) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Mode: mode.String(), Format: string(f)}
	if f.IsRaster() {
		opts.Scale = rz.Scale()
		opts.Background = rz.Background()
	}
	if f == sink.FormatJPEG {
		opts.Quality = rz.Quality()
	}
	return opts
}

func encode(ctx context.Context, rz *sink.Rasterizer, s *scene.Scene, f sink.Format) ([]byte, error) {
	switch f {
	case sink.FormatSVG:
		return sink.SerializeSVG(s)
	case sink.FormatPNG, sink.FormatJPEG:
		img, err := rz.Scene(ctx, s)
		if err != nil {
			return nil, err
		}
		return sink.Encode(img, f, rz.Quality())
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
}

// produceBitmap exports a primary element that is already a bitmap. Style
// modes do not apply to pixels; the image is placed on a white surface.
func produceBitmap(ctx context.Context, rz *sink.Rasterizer, img image.Image, f sink.Format) ([]byte, bool, error) {
	switch f {
	case sink.FormatPNG, sink.FormatJPEG:
		out, err := rz.Image(ctx, img)
		if err != nil {
			return nil, false, err
		}
		data, err := sink.Encode(out, f, rz.Quality())
		return data, false, err
	case sink.FormatSVG:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode bitmap")
		}
		b := img.Bounds()
		w, h := strconv.Itoa(b.Dx()), strconv.Itoa(b.Dy())
		root := scene.NewElement("svg",
			scene.Attr{Name: "width", Value: w},
			scene.Attr{Name: "height", Value: h},
		)
		root.Children = []*scene.Node{scene.NewElement("image",
			scene.Attr{Name: "width", Value: w},
			scene.Attr{Name: "height", Value: h},
			scene.Attr{Name: "href", Value: sink.EncodeDataURI("image/png", buf.Bytes())},
		)}
		data, err := sink.SerializeSVG(&scene.Scene{Root: root})
		return data, false, err
	default:
		return nil, false, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
