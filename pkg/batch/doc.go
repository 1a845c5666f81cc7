// Package batch replays chart exports across a cartesian sweep of chart
// settings.
//
// A [Plan] is the product of [Dimension] value sets. The [Orchestrator] walks
// it in nested order (first dimension slowest): it applies each item's
// [Patch] through the renderer's [Port], waits for the re-render, runs one
// export job, and records the outcome. Failures are isolated per item. The
// settings the run overwrote are captured as a [RestorePoint] before the
// first item and restored exactly once after the last, whether the run
// succeeded, failed or was canceled.
//
// Only one run may be active per orchestrator; a second concurrent Run
// returns [ErrBusy].
package batch
