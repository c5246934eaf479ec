// Package l1frames owns Layer 1 (Frames) of the vitals data model.
//
// Responsibilities: the per-tick input contract handed to the pipeline by
// the external capture layer (one PPG sample, per-frame channel statistics,
// region-of-interest geometry, an optional downsampled luminance patch and
// optionally externally sourced R-R intervals), and the JSON line wire
// format used by capture boards and recordings.
//
// Dependency rule: L1 depends on nothing else in the vitals tree. It never
// touches pixel buffers; the capture layer summarises frames before they
// arrive here.
package l1frames
