package constrait

import (
	"fmt"

	"constcheck/internal/diag"
	"constcheck/internal/fix"
)

// Checker decides const-trait obligations against immutable registry
// snapshots. It holds no cross-call state: every CheckFunc call is a single
// pass over one function body.
type Checker struct {
	traits   *TraitRegistry
	impls    *ImplRegistry
	reporter diag.Reporter
}

// NewChecker constructs a checker bound to the given registries and
// reporter. The registries must be fully populated before the first
// CheckFunc call.
func NewChecker(traits *TraitRegistry, impls *ImplRegistry, reporter diag.Reporter) *Checker {
	return &Checker{
		traits:   traits,
		impls:    impls,
		reporter: reporter,
	}
}

// CheckFunc runs both checking stages over one function body. Functions
// that are not const-required carry no obligations and are skipped.
//
// A non-nil error is a compiler-internal fault (resolver/checker
// inconsistency) and must abort the compilation unit; user-facing
// violations go through the reporter instead.
func (c *Checker) CheckFunc(fn *Func) error {
	if fn == nil || !fn.ConstRequired {
		return nil
	}
	c.validateSignature(fn)
	return c.checkObligations(fn)
}

// validateSignature checks every declared '~const' modifier against the
// trait registry, in bound declaration order.
func (c *Checker) validateSignature(fn *Func) {
	for _, pb := range fn.Bounds.Params() {
		for _, entry := range pb.Entries {
			if entry.Modifier != ModConstConditional {
				continue
			}
			tr, ok := c.traits.Lookup(entry.Trait)
			if ok && tr.ConstCapable {
				continue
			}
			b := diag.ReportError(c.reporter, diag.BndInvalidConstModifier, entry.Span,
				"'~const' can only be applied to const-capable traits")
			if ok {
				b.WithNote(tr.Span, fmt.Sprintf("`%s` is declared here without const capability", tr.Name))
			}
			b.Emit()
		}
	}
}

// checkObligations is the second stage: it re-validates the modifiers it
// relies on, then walks the call sites in source order. The re-validation
// deliberately repeats validateSignature's findings; both stages emit, and
// the emitter decides whether re-detections collapse (see package doc).
func (c *Checker) checkObligations(fn *Func) error {
	c.validateSignature(fn)
	for i := range fn.Calls {
		if err := c.checkCall(fn, &fn.Calls[i]); err != nil {
			return fmt.Errorf("checking %s: %w", fn.Name, err)
		}
	}
	return nil
}

// checkCall discharges one obligation or reports it unsatisfied.
func (c *Checker) checkCall(fn *Func, call *CallSite) error {
	if call.ReceiverParam {
		// A missing parameter entry behaves like an empty bound list:
		// the obligation cannot be discharged.
		pb, _ := fn.Bounds.Param(call.Receiver)
		if pb != nil && pb.HasConstBound(call.Trait) {
			return nil
		}
		c.reportNonConstCall(call, pb)
		return nil
	}

	im, err := c.impls.Lookup(call.Receiver, call.Trait)
	if err != nil {
		return err
	}
	if im.ConstImpl {
		return nil
	}
	c.reportNonConstCall(call, nil)
	return nil
}

func (c *Checker) reportNonConstCall(call *CallSite, pb *ParamBounds) {
	var msg string
	if call.OperatorDesugared {
		msg = "cannot call non-const operator in constant context"
	} else {
		msg = fmt.Sprintf("cannot call non-const method `%s::%s` in constant context", call.Trait, call.Method)
	}

	b := diag.ReportError(c.reporter, diag.ChkNonConstCall, call.Span, msg).
		WithNote(call.Span, "calls in constant contexts are limited to const-capable paths")
	if pb != nil {
		if suggestion, ok := c.suggestConstBound(pb, call.Trait); ok {
			b.WithFix(suggestion)
		}
	}
	b.Emit()
}

// suggestConstBound synthesizes the '+ ~const <path>' insertion at the end
// of the parameter's declared bound list. Parameters without bounds give no
// anchor to append to, so no suggestion is produced.
func (c *Checker) suggestConstBound(pb *ParamBounds, trait string) (diag.Fix, bool) {
	insertAt, ok := pb.InsertionPoint()
	if !ok {
		return diag.Fix{}, false
	}
	path := trait
	if tr, found := c.traits.Lookup(trait); found {
		path = tr.QualifiedPath()
	}
	suggestion := fix.InsertText(
		"consider further restricting this bound",
		insertAt,
		" + ~const "+path,
		"",
		fix.WithID(fix.MakeFixID(diag.ChkNonConstCall, insertAt)),
		fix.Preferred(),
	)
	return suggestion, true
}
