// Package config loads chartsnap settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/chartsnap/config.toml (or
// ~/.config/chartsnap/config.toml) unless a path is given. Missing keys
// keep their defaults and unknown keys are rejected. Command-line flags are
// applied on top by the CLI.
//
//	output_dir = "exports"
//	format = "png"
//	settle_delay = "500ms"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	namespace = "bars-v2"
//
//	[[dimension]]
//	name = "trend"
//	values = ["linear", "exponential"]
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/chart"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/manifest"
	"github.com/matzehuels/chartsnap/pkg/overlay"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

const appName = "chartsnap"

// FileName is the config file's base name.
const FileName = "config.toml"

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Overlay configures the template-processing service.
type Overlay struct {
	BaseURL string         `toml:"base_url"`
	Timeout Duration       `toml:"timeout"`
	Params  overlay.Params `toml:"params"`
}

// Dimension is one plan axis as written in the file. Each value sets the
// chart setting of the same name.
type Dimension struct {
	Name   string   `toml:"name"`
	Values []string `toml:"values"`
}

// Config is the whole file.
type Config struct {
	OutputDir string `toml:"output_dir"`

	// Export defaults, flattened into the top level.
	pipeline.Options

	SettleDelay Duration `toml:"settle_delay"`
	PauseEvery  int      `toml:"pause_every"`
	Pause       Duration `toml:"pause"`

	// Prefix starts every batch stem; AssetDimension names the dimension
	// that selects overlay assets.
	Prefix         string `toml:"prefix"`
	AssetDimension string `toml:"asset_dimension"`

	Cache      cache.Config    `toml:"cache"`
	Overlay    Overlay         `toml:"overlay"`
	Manifest   manifest.Config `toml:"manifest"`
	Chart      chart.Settings  `toml:"chart"`
	Dimensions []Dimension     `toml:"dimension"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: "exports",
		Options: pipeline.Options{
			Format:  string(pipeline.DefaultFormat),
			Mode:    "outline",
			Layers:  "primary",
			Scale:   pipeline.DefaultScale,
			Quality: pipeline.DefaultQuality,
		},
		SettleDelay: Duration{batch.DefaultSettleDelay},
		PauseEvery:  batch.DefaultPauseEvery,
		Pause:       Duration{batch.DefaultPause},
		Prefix:      "chart",
		Cache:       cache.Config{Backend: cache.BackendFile},
		Overlay: Overlay{
			BaseURL: overlay.DefaultBaseURL,
			Timeout: Duration{30 * time.Second},
		},
		Manifest: manifest.Config{Backend: manifest.BackendNone},
		Chart:    chart.DefaultSettings(),
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

// Load reads path over the defaults. An empty path means the default
// location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks the export defaults, chart settings and plan.
func (c *Config) Validate() error {
	if err := c.Options.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if err := c.Chart.Validate(); err != nil {
		return err
	}
	if c.SettleDelay.Duration < 0 || c.Pause.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "delays must not be negative")
	}
	if len(c.Dimensions) > 0 {
		if _, err := c.Plan(); err != nil {
			return err
		}
	}
	return nil
}

// Plan builds the batch plan from the configured dimensions.
func (c *Config) Plan() (*batch.Plan, error) {
	dims := make([]batch.Dimension, len(c.Dimensions))
	for i, d := range c.Dimensions {
		dims[i] = batch.Values(d.Name, d.Values...)
	}
	p := &batch.Plan{Prefix: c.Prefix, Dimensions: dims, AssetDimension: c.AssetDimension}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
