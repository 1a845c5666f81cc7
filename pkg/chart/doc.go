// Package chart is a small reference renderer for bar and line charts.
//
// It draws the d3-style SVG structure the export pipeline understands: a
// margin group translated by (left, top), "x-axis" and "y-axis" groups, and
// a "chart-vis-group" holding "bar" rects inside a "bars-group" or a "line"
// path with optional "area" and "point" marks. Data comes from trend
// generators (linear, exponential, logarithmic, sinusoidal).
//
// [Renderer] holds the current [Settings] and the live scenes rendered from
// them. It implements [batch.Port] so batch runs can sweep settings, and
// [batch.Prefetcher] to fetch overlay edge imagery per asset from the
// processing service. When edges for the selected asset are loaded, a
// secondary overlay scene is rendered with the edge image drawn on every
// bar top (or line point), scaled by the overlay width scale.
package chart
