// Package pipeline runs single chart exports: clone, restyle, encode, deliver.
//
// # Architecture
//
// One export job passes through four stages per selected layer:
//
//  1. Clone: take an owned copy of the live scene ([scene.Live.Clone])
//  2. Transform: restyle the copy for the variant's mode ([transform.Apply])
//  3. Encode: serialize to SVG or rasterize to PNG/JPEG ([sink])
//  4. Deliver: hand the bytes to the configured [sink.Sink]
//
// The primary layer is written as "{stem}.{ext}" and the overlay layer as
// "{stem}-canny.{ext}". Encoded artifacts are cached by the hash of the
// source markup and the export settings.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, out, logger)
//	opts := pipeline.Options{Format: "png", Mode: "filled", Layers: "both"}
//	job, err := opts.Job("bar-linear", pipeline.Snapshot{Primary: live, Overlay: edges})
//	res, err := runner.Run(ctx, job)
package pipeline

import (
	"image"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/scene"
	"github.com/matzehuels/chartsnap/pkg/sink"
	"github.com/matzehuels/chartsnap/pkg/transform"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Batch
// =============================================================================

const (
	// DefaultFormat is the artifact format when none is given.
	DefaultFormat = sink.FormatPNG

	// DefaultScale is the raster pixel density multiplier.
	DefaultScale = sink.DefaultScale

	// DefaultQuality is the JPEG quality.
	DefaultQuality = sink.DefaultJPEGQuality

	// FilledSuffix names the forced-fill companion of a primary export.
	FilledSuffix = "-filled"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	string(sink.FormatPNG):  true,
	string(sink.FormatJPEG): true,
	string(sink.FormatSVG):  true,
}

// ValidModes is the set of supported style modes.
var ValidModes = map[string]bool{
	"outline": true,
	"filled":  true,
}

// ValidLayers is the set of supported layer selections.
var ValidLayers = map[string]bool{
	"primary": true,
	"overlay": true,
	"both":    true,
}

// =============================================================================
// Snapshot and Job
// =============================================================================

// Snapshot is what a renderer currently shows: the primary chart scene and
// the optional overlay scene. A primary element that is already a bitmap is
// passed as PrimaryBitmap instead of Primary.
type Snapshot struct {
	Primary       *scene.Live
	Overlay       *scene.Live
	PrimaryBitmap image.Image
}

// Job is one export request. Jobs are created per export and consumed once.
type Job struct {
	Source  Snapshot
	Stem    string
	Format  sink.Format
	Variant transform.Variant

	// Filled also writes "{stem}-filled.{ext}" for the primary layer in
	// forced-fill mode when the variant mode is outline.
	Filled bool

	// Refresh bypasses the artifact cache.
	Refresh bool

	// Raster overrides the runner's rasterizer settings for this job.
	Raster []sink.RasterOption
}

// =============================================================================
// Options - Export Configuration
// =============================================================================

// Options is the serializable form of a job's settings, as accepted by the
// CLI, the config file and the HTTP API.
type Options struct {
	Format  string  `json:"format,omitempty" toml:"format"`
	Mode    string  `json:"mode,omitempty" toml:"mode"`
	Layers  string  `json:"layers,omitempty" toml:"layers"`
	Filled  bool    `json:"with_filled,omitempty" toml:"with_filled"`
	Refresh bool    `json:"refresh,omitempty" toml:"-"`
	Scale   float64 `json:"scale,omitempty" toml:"scale"`
	Quality int     `json:"quality,omitempty" toml:"quality"`

	// Transparent skips the white raster surface. Scene styling still
	// sets a white page background.
	Transparent bool `json:"transparent,omitempty" toml:"transparent"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, jpg, svg)", format)
	}
	return nil
}

// ValidateAndSetDefaults normalizes and checks the options. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format == "" {
		o.Format = string(DefaultFormat)
	}
	if o.Format == "jpeg" {
		o.Format = string(sink.FormatJPEG)
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}

	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	if o.Mode == "" {
		o.Mode = "outline"
	}
	if !ValidModes[o.Mode] {
		return errors.New(errors.ErrCodeInvalidVariant, "invalid mode: %q (must be one of: outline, filled)", o.Mode)
	}

	o.Layers = strings.ToLower(strings.TrimSpace(o.Layers))
	if o.Layers == "" {
		o.Layers = "primary"
	}
	if !ValidLayers[o.Layers] {
		return errors.New(errors.ErrCodeInvalidVariant, "invalid layers: %q (must be one of: primary, overlay, both)", o.Layers)
	}

	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Quality < 1 || o.Quality > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "quality must be between 1 and 100, got %d", o.Quality)
	}

	o.validated = true
	return nil
}

// Variant returns the typed variant. Options must be valid.
func (o *Options) Variant() (transform.Variant, error) {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return transform.Variant{}, err
	}
	return transform.ParseVariant(o.Mode + "/" + o.Layers)
}

// Job builds a job for the snapshot.
func (o *Options) Job(stem string, src Snapshot) (Job, error) {
	v, err := o.Variant()
	if err != nil {
		return Job{}, err
	}
	f, err := sink.ParseFormat(o.Format)
	if err != nil {
		return Job{}, err
	}
	return Job{
		Source:  src,
		Stem:    stem,
		Format:  f,
		Variant: v,
		Filled:  o.Filled,
		Refresh: o.Refresh,
		Raster:  o.RasterOptions(),
	}, nil
}

// RasterOptions returns the rasterizer settings the options select.
func (o *Options) RasterOptions() []sink.RasterOption {
	return []sink.RasterOption{
		sink.WithScale(o.Scale),
		sink.WithQuality(o.Quality),
		sink.WithBackground(!o.Transparent),
	}
}
