// Package constrait decides const-trait obligations.
//
// Inputs are read-only snapshots produced by the upstream resolver: trait
// and impl registries, per-function bound sets, and ordered call-site lists.
// For every trait-mediated call inside a const-required function body the
// checker decides whether the resolved implementation is guaranteed to be
// compile-time evaluable, and reports a diagnostic when it is not.
//
// The checker runs two deliberately independent stages per function:
// signature validation (are the declared '~const' modifiers legal?) and
// obligation checking (is every call's obligation discharged?). Both stages
// may re-detect the same invalid modifier; collapsing such re-detections is
// the emitter's decision, not the checker's (see internal/diag).
//
// The package performs no name or type resolution and holds no mutable
// state across calls: checking a function is a pure function of its inputs,
// so function bodies can be checked in parallel against shared registries.
package constrait
