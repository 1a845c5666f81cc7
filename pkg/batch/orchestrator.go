package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/observability"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

// Defaults for pacing a run.
const (
	DefaultSettleDelay = 500 * time.Millisecond
	DefaultPauseEvery  = 10
	DefaultPause       = time.Second
)

// ErrBusy is returned when Run is called while another run is active.
var ErrBusy = errors.New(errors.ErrCodeBusy, "a batch run is already in progress")

// State is the orchestrator's position in a run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateWaiting
	StateExporting
	StateRestoring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateExporting:
		return "exporting"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// Orchestrator drives an [Exporter] across a [Plan].
type Orchestrator struct {
	port     Port
	exporter Exporter
	recorder Recorder
	logger   *log.Logger

	settleDelay time.Duration
	pauseEvery  int
	pause       time.Duration
	onProgress  func(Progress)

	state atomic.Int32
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithSettleDelay sets the wait after each patch when the port cannot report
// render completion (default 500ms).
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.settleDelay = d }
}

// WithPause inserts an extra pause of d after every n items.
// n <= 0 disables it.
func WithPause(n int, d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pauseEvery = n
		o.pause = d
	}
}

// WithProgress registers a callback invoked after every item.
func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithRecorder records every item's outcome.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger. Item failures are logged at error level with
// the item's coordinates.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator returns an idle orchestrator.
func NewOrchestrator(port Port, exporter Exporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		port:        port,
		exporter:    exporter,
		logger:      log.Default(),
		settleDelay: DefaultSettleDelay,
		pauseEvery:  DefaultPauseEvery,
		pause:       DefaultPause,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Run exports every item of plan with the given options. It returns an error
// only when the run could not start, was canceled, or the final restore
// failed; per-item failures are in the report.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan, opts pipeline.Options) (*Report, error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrBusy
	}
	defer o.state.Store(int32(StateIdle))

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rp, err := o.port.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "snapshot renderer settings")
	}

	report := &Report{RunID: uuid.NewString(), Total: plan.Len()}
	observability.Batch().OnBatchStart(ctx, report.RunID, report.Total)
	o.logger.Info("batch started", "run", report.RunID, "items", report.Total)

	runErr := o.loop(ctx, plan, opts, report)

	o.state.Store(int32(StateRestoring))
	if err := o.port.Restore(context.WithoutCancel(ctx), rp); err != nil && runErr == nil {
		runErr = errors.Wrap(errors.ErrCodeInternal, err, "restore renderer settings")
	}

	report.Duration = time.Since(start)
	observability.Batch().OnBatchComplete(ctx, report.RunID, report.Succeeded, report.Failed+report.Skipped, report.Duration, runErr)
	o.logger.Info("batch finished", "run", report.RunID,
		"succeeded", report.Succeeded, "failed", report.Failed, "skipped", report.Skipped,
		"duration", report.Duration.Round(time.Millisecond))
	return report, runErr
}

func (o *Orchestrator) loop(ctx context.Context, plan *Plan, opts pipeline.Options, report *Report) error {
	var (
		asset    string
		assetErr error
		fetched  bool
	)
	prefetcher, _ := o.port.(Prefetcher)

	for i := 0; i < plan.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.state.Store(int32(StateRunning))
		item := plan.Item(i)

		if plan.AssetDimension != "" && prefetcher != nil {
			a, _ := item.Label(plan.AssetDimension)
			if !fetched || a != asset {
				asset, fetched = a, true
				assetErr = prefetcher.Prefetch(ctx, a)
				if assetErr != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					o.logger.Warn("asset prefetch failed, skipping its items", "asset", a, "err", assetErr)
				}
			}
		}

		var out Outcome
		if assetErr != nil {
			out = Outcome{Item: item, Status: StatusSkipped, Err: assetErr}
			observability.Batch().OnItemSkipped(ctx, report.RunID, i, item.Stem, assetErr)
		} else {
			out = o.runItem(ctx, item, opts)
			if out.Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			observability.Batch().OnItemComplete(ctx, report.RunID, i, item.Stem, out.Duration, out.Err)
		}
		out.RunID = report.RunID
		out.Time = time.Now()
		if out.Status == StatusFailed {
			o.logger.Error("export failed", "stem", item.Stem, "item", item.String(), "err", out.Err)
		}

		report.add(out)
		o.record(ctx, out)
		if o.onProgress != nil {
			o.onProgress(Progress{RunID: report.RunID, Done: report.Done(), Total: report.Total, Outcome: out})
		}

		if o.pauseEvery > 0 && (i+1)%o.pauseEvery == 0 && i+1 < plan.Len() {
			if err := sleep(ctx, o.pause); err != nil {
				return err
			}
		}
	}
	return nil
}

// runItem applies the item's settings, waits for the re-render and exports.
func (o *Orchestrator) runItem(ctx context.Context, item Item, opts pipeline.Options) Outcome {
	start := time.Now()
	out := Outcome{Item: item}
	fail := func(err error) Outcome {
		out.Status = StatusFailed
		out.Err = err
		out.Duration = time.Since(start)
		return out
	}

	if err := o.port.Apply(ctx, item.Patch); err != nil {
		return fail(err)
	}

	o.state.Store(int32(StateWaiting))
	if err := o.waitRendered(ctx); err != nil {
		return fail(err)
	}

	o.state.Store(int32(StateExporting))
	job, err := opts.Job(item.Stem, o.port.Current())
	if err != nil {
		return fail(err)
	}
	res, err := o.exporter.Run(ctx, job)
	if err != nil {
		return fail(err)
	}
	if res == nil {
		res = &pipeline.Result{}
	}
	for _, a := range res.Artifacts {
		out.Files = append(out.Files, a.Name)
	}
	out.Status = StatusSucceeded
	out.Duration = time.Since(start)
	o.logger.Debug("exported", "stem", item.Stem, "files", len(out.Files))
	return out
}

func (o *Orchestrator) waitRendered(ctx context.Context) error {
	if w, ok := o.port.(RenderWaiter); ok {
		return w.WaitRendered(ctx)
	}
	return sleep(ctx, o.settleDelay)
}

func (o *Orchestrator) record(ctx context.Context, out Outcome) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, out); err != nil {
		o.logger.Warn("manifest record failed", "stem", out.Item.Stem, "err", err)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
