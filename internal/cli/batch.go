package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/chart"
	"github.com/matzehuels/chartsnap/pkg/config"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/httputil"
	chartio "github.com/matzehuels/chartsnap/pkg/io"
	"github.com/matzehuels/chartsnap/pkg/manifest"
	"github.com/matzehuels/chartsnap/pkg/overlay"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	exportFlags
	dims     []string // --dim name=v1,v2 overrides the config's dimensions
	prefix   string
	assetDim string
	manifest string // manifest backend override
	report   string // write the report as JSON to this path
	noTUI    bool
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render and export every combination of the plan's dimensions",
		Long: `Render the reference chart for every combination of the configured
dimensions and export each one. Dimensions come from the config file's
[[dimension]] tables or from repeated --dim flags; each dimension names a
chart setting (chart, trend, points, asset, technique, ...).

Settings are restored when the run ends, including on interrupt. Failed
items are recorded and the run continues.`,
		Example: `  chartsnap batch --dim chart=bar,line --dim trend=linear,exponential
  chartsnap batch --dim asset=a.png,b.png --asset-dim asset --layers both`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringArrayVar(&opts.dims, "dim", nil, "plan dimension as name=value,value (repeatable)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "stem prefix (default from config)")
	cmd.Flags().StringVar(&opts.assetDim, "asset-dim", "", "dimension selecting overlay assets")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "manifest backend: jsonl, xlsx, mongo, none")
	cmd.Flags().StringVar(&opts.report, "report", "", "write the run report as JSON to this file")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "log progress instead of showing the live view")

	return cmd
}

// applyPlanFlags overrides the config's plan with flags the user set.
func (o *batchOpts) applyPlanFlags(cfg *config.Config) error {
	if len(o.dims) > 0 {
		dims, err := parseDims(o.dims)
		if err != nil {
			return err
		}
		cfg.Dimensions = dims
	}
	if o.prefix != "" {
		cfg.Prefix = o.prefix
	}
	if o.assetDim != "" {
		cfg.AssetDimension = o.assetDim
	}
	return nil
}

// parseDims parses "name=v1,v2" flag values.
func parseDims(args []string) ([]config.Dimension, error) {
	dims := make([]config.Dimension, 0, len(args))
	for _, arg := range args {
		name, values, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(values) == "" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "invalid --dim %q (want name=value,value)", arg)
		}
		d := config.Dimension{Name: name}
		for _, v := range strings.Split(values, ",") {
			d.Values = append(d.Values, strings.TrimSpace(v))
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// manifestConfig resolves the manifest backend and its default file path
// inside the output directory.
func manifestConfig(cfg manifest.Config, override, dir string) manifest.Config {
	if override != "" {
		cfg.Backend = override
	}
	if cfg.Path == "" {
		switch strings.ToLower(cfg.Backend) {
		case manifest.BackendJSONL:
			cfg.Path = filepath.Join(dir, "manifest.jsonl")
		case manifest.BackendXLSX:
			cfg.Path = filepath.Join(dir, "manifest.xlsx")
		}
	}
	return cfg
}

// batchSetup is everything a batch run needs, built from the config.
type batchSetup struct {
	plan     *batch.Plan
	cache    cache.Cache
	renderer *chart.Renderer
	store    manifest.Store
	orch     *batch.Orchestrator
}

func (s *batchSetup) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// newBatchSetup wires the renderer, overlay client, exporter and manifest.
// The returned setup must be closed; on error it is already closed.
func (c *CLI) newBatchSetup(ctx context.Context, cfg config.Config, dir string, flags exportFlags, manifestBackend string, orchOpts ...batch.Option) (*batchSetup, error) {
	logger := loggerFromContext(ctx)
	s := &batchSetup{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var err error
	if len(cfg.Dimensions) > 0 {
		if s.plan, err = cfg.Plan(); err != nil {
			return nil, err
		}
	}

	if s.cache, err = newCache(ctx, cfg.Cache, flags.noCache); err != nil {
		return nil, err
	}

	client, err := overlay.NewClient(cfg.Overlay.BaseURL,
		overlay.WithHTTPClient(httputil.NewHTTPClient(cfg.Overlay.Timeout.Duration)),
		overlay.WithCache(s.cache, cfg.Cache.Keyer()),
		overlay.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if s.renderer, err = chart.NewRenderer(cfg.Chart,
		chart.WithEdgeSource(client, cfg.Overlay.Params),
		chart.WithRendererLogger(logger),
	); err != nil {
		return nil, err
	}

	runner, err := c.newRunner(s.cache, cfg.Cache.Keyer(), dir, cfg.Options)
	if err != nil {
		return nil, err
	}

	if s.store, err = manifest.Open(ctx, manifestConfig(cfg.Manifest, manifestBackend, dir)); err != nil {
		return nil, err
	}

	opts := []batch.Option{
		batch.WithSettleDelay(cfg.SettleDelay.Duration),
		batch.WithPause(cfg.PauseEvery, cfg.Pause.Duration),
		batch.WithRecorder(s.store),
		batch.WithLogger(logger),
	}
	s.orch = batch.NewOrchestrator(s.renderer, runner, append(opts, orchOpts...)...)
	ok = true
	return s, nil
}

func (c *CLI) runBatch(cmd *cobra.Command, opts *batchOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.applyPlanFlags(&cfg); err != nil {
		return err
	}
	pipeOpts, err := opts.options(cmd, cfg)
	if err != nil {
		return err
	}
	cfg.Options = pipeOpts
	if len(cfg.Dimensions) == 0 {
		return errors.New(errors.ErrCodeInvalidPlan, "no dimensions: add [[dimension]] tables to the config or pass --dim")
	}

	dir := opts.dir(cfg)
	tui := !opts.noTUI && isTerminal(os.Stdout)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	var progress func(batch.Progress)
	if tui {
		progress = func(p batch.Progress) { program.Send(progressMsg(p)) }
	} else {
		progress = logProgress(logger)
	}

	setup, err := c.newBatchSetup(runCtx, cfg, dir, opts.exportFlags, opts.manifest, batch.WithProgress(progress))
	if err != nil {
		return err
	}
	defer setup.Close()

	logger.Info("Starting batch", "items", setup.plan.Len(), "output", dir)
	watch := startStopwatch(logger)

	var report *batch.Report
	if tui {
		program = tea.NewProgram(NewBatchModel(setup.plan.Len(), cancel))
		go func() {
			r, err := setup.orch.Run(runCtx, setup.plan, pipeOpts)
			program.Send(batchDoneMsg{report: r, err: err})
		}()
		final, err := program.Run()
		if err != nil {
			return err
		}
		m := final.(BatchModel)
		report, err = m.Report, m.Err
		if err != nil {
			return err
		}
	} else {
		if report, err = setup.orch.Run(runCtx, setup.plan, pipeOpts); err != nil {
			return err
		}
	}

	watch.done("Batch finished", "succeeded", report.Succeeded, "failed", report.Failed, "skipped", report.Skipped)
	printReport(report)
	if opts.report != "" {
		if err := chartio.ExportReportJSON(report, opts.report); err != nil {
			return err
		}
		printFile(opts.report)
	}
	return nil
}

// logProgress logs every tenth item and every failure.
func logProgress(logger *log.Logger) func(batch.Progress) {
	return func(p batch.Progress) {
		o := p.Outcome
		switch {
		case o.Status != batch.StatusSucceeded:
			logger.Warn("item "+string(o.Status), "stem", o.Item.Stem, "err", o.Err)
		case p.Done%10 == 0 || p.Done == p.Total:
			logger.Info("progress", "done", p.Done, "total", p.Total)
		default:
			logger.Debug("exported", "stem", o.Item.Stem, "files", len(o.Files))
		}
	}
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
