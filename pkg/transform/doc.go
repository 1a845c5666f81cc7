// Package transform restyles cloned chart scenes for export.
//
// Two modes exist. [Outline] draws every primitive as a thin black outline
// on a white background, keeping roles and geometry. [ForcedFill] turns
// data marks into solid black silhouettes and, for line charts, first
// synthesizes a closed area under the line so the silhouette covers the
// region between the line and the x-axis baseline.
//
// Both modes are idempotent: applying a mode twice gives the same scene as
// applying it once.
package transform
