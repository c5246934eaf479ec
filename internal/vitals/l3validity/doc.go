// Package l3validity owns Layer 3 (Validity) of the vitals data model.
//
// Responsibilities: deciding whether the current frame is a real fingertip
// signal. The layer calibrates an ambient noise floor, runs the
// artificial-source, skin-texture and biophysical validators, combines their
// scores in the binary veto gate, and debounces the per-frame verdict into a
// finger-detected state.
//
// Dependency rule: L3 depends on L1 (frame statistics) and the shared ring
// buffer. Estimation layers consume its verdict; it never consumes theirs.
package l3validity
