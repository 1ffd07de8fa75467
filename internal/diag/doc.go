// Package diag defines the diagnostic model shared by all checking stages.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by registry validation, signature validation and
//     obligation checking.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the CLI can render and
//     optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, or CLI integration.
// Rendering lives in internal/diagfmt; application of fixes lives in
// internal/fix and the driver layer.
//
// # Deduplication
//
// Whether structurally identical diagnostics collapse is an emitter-side
// decision, not a producer-side one. Producers emit once per evaluation
// pass; the reporter chain is then configured with either DedupReporter
// (collapse repeats) or DupNoteReporter (forward repeats, annotating each
// with a duplicate-origin note). Both key on (code, severity, primary span,
// message) so that an annotated repeat still matches its original.
//
// Keep the data model deterministic and side-effect free: formatters and the
// result cache rely on being able to serialise diagnostics verbatim.
package diag
