package batch

import (
	"context"

	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

// RestorePoint is a snapshot of the renderer settings a run may overwrite.
type RestorePoint struct {
	Settings Patch
}

// Port is the narrow contract between the orchestrator and the renderer that
// owns the chart and its configuration.
type Port interface {
	// Snapshot captures the settings the plan's patches may overwrite.
	Snapshot(ctx context.Context) (RestorePoint, error)
	// Apply overwrites settings and triggers a re-render.
	Apply(ctx context.Context, p Patch) error
	// Restore puts back a snapshot.
	Restore(ctx context.Context, rp RestorePoint) error
	// Current returns the scenes currently on display.
	Current() pipeline.Snapshot
}

// RenderWaiter is implemented by ports that can report when a re-render has
// finished. Without it the orchestrator sleeps for the settle delay.
type RenderWaiter interface {
	WaitRendered(ctx context.Context) error
}

// Prefetcher is implemented by ports that need remote imagery per overlay
// asset. Prefetch runs once each time the plan's asset coordinate changes.
type Prefetcher interface {
	Prefetch(ctx context.Context, asset string) error
}

// Exporter runs one export job. *pipeline.Runner implements it.
type Exporter interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// Recorder stores a per-item outcome, e.g. in a corpus manifest.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}
