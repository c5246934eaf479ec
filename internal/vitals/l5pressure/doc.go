// Package l5pressure owns Layer 5 (Pressure) of the vitals data model.
//
// Responsibilities: a cuffless blood-pressure estimate from pulse transit
// time, approximated by inter-peak spacing of the filtered PPG signal and
// adjusted by pulse morphology, scaled against an explicit calibration.
//
// Uncalibrated estimates are produced but flagged. A result whose
// confidence clears the threshold becomes the fallback returned while later
// ticks lack data.
//
// Dependency rule: L5 consumes filtered samples from L2 and the held heart
// rate from L4.
package l5pressure
