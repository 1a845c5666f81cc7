package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/config"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
	"github.com/matzehuels/chartsnap/pkg/sink"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "chartsnap"
)

// Log levels selectable from main.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend, "manifest", cfg.Manifest.Backend)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner delivering into dir. Closing the
// runner closes cc.
func (c *CLI) newRunner(cc cache.Cache, keyer cache.Keyer, dir string, opts pipeline.Options) (*pipeline.Runner, error) {
	out, err := sink.NewDirSink(dir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, keyer, out, c.Logger, opts.RasterOptions()...), nil
}

// newCache opens the configured cache. File caches without a directory use
// the XDG cache location; an unusable location disables caching.
func newCache(ctx context.Context, cfg cache.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if (cfg.Backend == "" || cfg.Backend == cache.BackendFile) && cfg.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		cfg.Dir = dir
	}
	return cache.Open(ctx, cfg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/chartsnap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// exportFlags are the flags export, batch and serve share.
type exportFlags struct {
	format      string
	mode        string
	layers      string
	filled      bool
	refresh     bool
	noCache     bool
	transparent bool
	scale       float64
	quality     int
	outDir      string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", "", "output format: png (default), jpg, svg")
	fs.StringVarP(&f.mode, "mode", "m", "", "style mode: outline (default), filled")
	fs.StringVarP(&f.layers, "layers", "l", "", "layers to export: primary (default), overlay, both")
	fs.BoolVar(&f.filled, "with-filled", false, "also write {stem}-filled in forced-fill mode")
	fs.BoolVar(&f.refresh, "refresh", false, "re-encode even when a cached artifact exists")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the artifact cache")
	fs.BoolVar(&f.transparent, "transparent", false, "keep raster backgrounds transparent")
	fs.Float64Var(&f.scale, "scale", 0, "raster pixel density (default 2)")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality 1-100 (default 92)")
	fs.StringVarP(&f.outDir, "out", "o", "", "output directory (default from config, else ./exports)")
}

// options applies the flags the user set on top of the config file's
// export defaults.
func (f *exportFlags) options(cmd *cobra.Command, cfg config.Config) (pipeline.Options, error) {
	opts := pipeline.Options{
		Format:      cfg.Format,
		Mode:        cfg.Mode,
		Layers:      cfg.Layers,
		Filled:      cfg.Filled,
		Scale:       cfg.Scale,
		Quality:     cfg.Quality,
		Transparent: cfg.Transparent,
	}
	fs := cmd.Flags()
	if fs.Changed("format") {
		opts.Format = f.format
	}
	if fs.Changed("mode") {
		opts.Mode = f.mode
	}
	if fs.Changed("layers") {
		opts.Layers = f.layers
	}
	if fs.Changed("with-filled") {
		opts.Filled = f.filled
	}
	if fs.Changed("transparent") {
		opts.Transparent = f.transparent
	}
	if fs.Changed("scale") {
		opts.Scale = f.scale
	}
	if fs.Changed("quality") {
		opts.Quality = f.quality
	}
	opts.Refresh = f.refresh
	return opts, opts.ValidateAndSetDefaults()
}

// dir returns the output directory.
func (f *exportFlags) dir(cfg config.Config) string {
	if f.outDir != "" {
		return f.outDir
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return config.Default().OutputDir
}
