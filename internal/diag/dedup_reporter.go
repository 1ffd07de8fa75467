package diag

import "constcheck/internal/source"

// DuplicateOriginNote is attached to diagnostics that would have been
// collapsed had deduplication been left enabled.
const DuplicateOriginNote = "duplicate diagnostic emitted due to deduplication being disabled"

type dedupKey struct {
	code  Code
	sev   Severity
	file  source.FileID
	start uint32
	end   uint32
	msg   string
}

func makeKey(code Code, sev Severity, primary source.Span, msg string) dedupKey {
	return dedupKey{
		code:  code,
		sev:   sev,
		file:  primary.File,
		start: primary.Start,
		end:   primary.End,
		msg:   msg,
	}
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, severity, primary span and message.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := makeKey(code, sev, primary, msg)
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}

// DupNoteReporter forwards every diagnostic, including structural
// duplicates. The second and later occurrence of a duplicate gains
// DuplicateOriginNote so readers can tell re-detections apart from
// distinct findings. Used when deduplication is disabled.
type DupNoteReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDupNoteReporter returns a Reporter that annotates duplicates instead of
// suppressing them.
func NewDupNoteReporter(next Reporter) *DupNoteReporter {
	return &DupNoteReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DupNoteReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil || r.next == nil {
		return
	}
	key := makeKey(code, sev, primary, msg)
	if _, ok := r.seen[key]; ok {
		annotated := make([]Note, 0, len(notes)+1)
		annotated = append(annotated, notes...)
		annotated = append(annotated, Note{Span: primary, Msg: DuplicateOriginNote})
		r.next.Report(code, sev, primary, msg, annotated, fixes)
		return
	}
	r.seen[key] = struct{}{}
	r.next.Report(code, sev, primary, msg, notes, fixes)
}
