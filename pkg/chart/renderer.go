package chart

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/overlay"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

// EdgeSource supplies processed overlay imagery. *overlay.Client implements it.
type EdgeSource interface {
	ProcessTemplate(ctx context.Context, asset string, params overlay.Params, refresh bool) (*overlay.Result, error)
}

// Renderer owns the current settings and the scenes rendered from them.
type Renderer struct {
	mu       sync.Mutex
	settings Settings
	edges    map[string]*overlay.Result

	source EdgeSource
	params overlay.Params
	logger *log.Logger

	primary   *scene.Live
	secondary *scene.Live
}

// RendererOption configures a [Renderer].
type RendererOption func(*Renderer)

// WithEdgeSource fetches overlay edges from src with the given processing
// params (defaults when nil).
func WithEdgeSource(src EdgeSource, params overlay.Params) RendererOption {
	return func(r *Renderer) {
		r.source = src
		if params != nil {
			r.params = params
		}
	}
}

// WithRendererLogger sets the logger.
func WithRendererLogger(l *log.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer renders s and returns the renderer holding it.
func NewRenderer(s Settings, opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		edges:     make(map[string]*overlay.Result),
		params:    overlay.DefaultParams(),
		logger:    log.Default(),
		primary:   scene.NewLive(nil),
		secondary: scene.NewLive(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.render(s); err != nil {
		return nil, err
	}
	r.settings = s
	return r, nil
}

// Settings returns the current settings.
func (r *Renderer) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Snapshot implements [batch.Port].
func (r *Renderer) Snapshot(ctx context.Context) (batch.RestorePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return batch.RestorePoint{Settings: r.settings.Patch()}, nil
}

// Apply implements [batch.Port]. On error the current rendering is kept.
func (r *Renderer) Apply(ctx context.Context, p batch.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := r.settings.With(p)
	if err != nil {
		return err
	}
	if err := r.render(next); err != nil {
		return err
	}
	r.settings = next
	return nil
}

// Restore implements [batch.Port].
func (r *Renderer) Restore(ctx context.Context, rp batch.RestorePoint) error {
	return r.Apply(ctx, rp.Settings)
}

// Current implements [batch.Port].
func (r *Renderer) Current() pipeline.Snapshot {
	return pipeline.Snapshot{Primary: r.primary, Overlay: r.secondary}
}

// WaitRendered implements [batch.RenderWaiter]. Apply renders synchronously,
// so a patch is on screen by the time Apply returns.
func (r *Renderer) WaitRendered(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ctx.Err()
}

// Prefetch implements [batch.Prefetcher]. It loads the asset's edges once
// and re-renders if the asset is currently selected.
func (r *Renderer) Prefetch(ctx context.Context, asset string) error {
	if asset == "" || asset == NoAsset {
		return nil
	}
	r.mu.Lock()
	_, have := r.edges[asset]
	r.mu.Unlock()
	if have {
		return nil
	}
	if r.source == nil {
		return errors.New(errors.ErrCodeUnsupported, "no overlay service configured for asset %q", asset)
	}

	res, err := r.source.ProcessTemplate(ctx, asset, r.params, false)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[asset] = res
	r.logger.Debug("overlay edges loaded", "asset", asset, "cached", res.CacheHit)
	if r.settings.Asset == asset {
		return r.render(r.settings)
	}
	return nil
}

// render must be called with mu held.
func (r *Renderer) render(s Settings) error {
	data, err := Generate(s.Trend, s.Points)
	if err != nil {
		return err
	}
	primary, err := RenderScene(s, data, nil)
	if err != nil {
		return err
	}

	var secondary *scene.Scene
	if edge := r.edgeFor(s); len(edge) > 0 {
		if secondary, err = RenderScene(s, data, edge); err != nil {
			return err
		}
	}

	r.primary.Replace(primary)
	r.secondary.Replace(secondary)
	return nil
}

func (r *Renderer) edgeFor(s Settings) []byte {
	if !s.HasOverlay() {
		return nil
	}
	res := r.edges[s.Asset]
	if res == nil {
		return nil
	}
	return res.Edge(s.Technique)
}

var (
	_ batch.Port         = (*Renderer)(nil)
	_ batch.Prefetcher   = (*Renderer)(nil)
	_ batch.RenderWaiter = (*Renderer)(nil)
)
