// Package io reads export inputs from files and writes export results as
// JSON.
//
// # Import
//
// An input is either SVG markup or a bitmap (PNG, JPEG, GIF). The content is
// sniffed, not the extension. SVG inputs become a live primary scene; bitmaps
// are passed through as [pipeline.Snapshot.PrimaryBitmap]. An optional second
// input supplies the overlay layer and must be SVG:
//
//	snap, err := io.ImportSnapshot("chart.svg", "edges.svg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Use [ReadSnapshot] to read from any io.Reader.
//
// # Export
//
// [WriteResultJSON] encodes a [pipeline.Result] for scripts and the HTTP API:
//
//	{
//	  "stem": "bar-linear",
//	  "artifacts": [
//	    {"name": "bar-linear.png", "location": "exports/bar-linear.png",
//	     "layer": "primary", "mode": "outline", "size": 5120}
//	  ],
//	  "duration_ms": 42
//	}
//
// [WriteReportJSON] does the same for a batch [batch.Report].
package io
