// Package l4cardiac owns Layer 4 (Cardiac) of the vitals data model.
//
// Responsibilities: heart-rate estimation from two independent sources
// (time-domain peak detection and a windowed spectral estimate), fusion and
// smoothing of their candidates, ratiometric SpO2 estimation with decaying
// fallback, and R-R variability analysis for arrhythmia status.
//
// All elapsed-time decisions (refractory period, learning phase) are pure
// comparisons of frame timestamps; nothing in this layer reads a clock.
//
// Dependency rule: L4 consumes filtered samples from L2 and runs only on
// frames L3 has accepted; it never feeds back into validity.
package l4cardiac
