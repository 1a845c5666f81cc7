// Package pkg is the root of chartsnap's library packages.
//
// Chartsnap exports what a chart renderer currently shows as image files.
// A single export clones the live chart scene, restyles the copy for
// print, optionally synthesizes a filled area under line series, encodes
// the result as SVG, PNG or JPEG, and delivers it to a sink. Batch exports
// walk the cartesian product of named parameter dimensions, apply each
// combination to a renderer, wait for it to settle, export, and restore
// the renderer's original settings at the end.
//
// # Quick Start
//
// Export an SVG chart file to PNG in the current directory:
//
//	import (
//	    "context"
//	    chartio "github.com/matzehuels/chartsnap/pkg/io"
//	    "github.com/matzehuels/chartsnap/pkg/pipeline"
//	    "github.com/matzehuels/chartsnap/pkg/sink"
//	)
//
//	snap, _ := chartio.ImportSnapshot("chart.svg", "")
//	opts := pipeline.Options{Format: "png", Mode: "outline", Layers: "primary"}
//	_ = opts.ValidateAndSetDefaults()
//	job, _ := opts.Job("chart", snap)
//
//	out, _ := sink.NewDirSink(".")
//	runner := pipeline.NewRunner(nil, nil, out, nil, opts.RasterOptions()...)
//	res, _ := runner.Run(context.Background(), job)
//
// # Main Packages
//
// ## Export Pipeline
//
// [scene] - Owned SVG document trees, the live scene handle renderers
// publish, and the path-data parser ([scene/pathdata]).
//
// [transform] - Print restyling (white page, black strokes, fill rules per
// style mode) and area synthesis beneath line series.
//
// [sink] - SVG serialization, rasterization onto RGBA surfaces, image
// encoding, and delivery targets (directory, memory).
//
// [pipeline] - Export jobs: options, variants, caching, and the runner that
// ties clone, transform, encode and deliver together.
//
// ## Batch
//
// [batch] - Dimension plans, the renderer port, and the orchestrator that
// drives a renderer through every combination with pacing and restore.
//
// [chart] - A built-in renderer that draws bar, line and area charts from
// generated data, used by the CLI and server for batch runs.
//
// [overlay] - HTTP client for the edge-detection service that produces the
// overlay layer.
//
// [manifest] - Per-item run records written to JSONL, XLSX or MongoDB.
//
// ## Infrastructure
//
// [cache] - Artifact and overlay caches with file, memory and Redis
// backends.
//
// [config] - TOML configuration file loading and validation.
//
// [io] - Snapshot import from files and JSON result/report encoding.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [httputil] - HTTP client construction and retry helpers.
//
// [observability] - Hook interfaces for export, batch, cache and HTTP
// events.
//
// [buildinfo] - Version information injected at build time.
package pkg
