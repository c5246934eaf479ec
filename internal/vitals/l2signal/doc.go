// Package l2signal owns Layer 2 (Signal) of the vitals data model.
//
// Responsibilities: conditioning the raw per-frame PPG sample with a short
// moving average, buffering timestamped filtered samples for the estimators,
// and window normalisation for time-domain peak detection.
//
// Dependency rule: L2 depends on L1 only for the sample it is handed; it
// knows nothing about validity or estimation.
package l2signal
