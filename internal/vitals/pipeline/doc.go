// Package pipeline provides orchestration for the vital-signs pipeline.
//
// It wires the layer packages (L1 frames through L5 pressure) and the
// performance scheduler into a single per-tick step that turns one frame
// into one Snapshot. The pipeline owns every component exclusively and is
// not safe for concurrent use; callers serialise ticks and control calls
// (see internal/session).
package pipeline
