package constrait

import (
	"constcheck/internal/source"
)

// Modifier is the constness modifier attached to a trait bound.
type Modifier uint8

const (
	// ModPlain is an ordinary bound carrying no const guarantee.
	ModPlain Modifier = iota
	// ModConstConditional requires const-capability of the chosen impl at
	// the call site ('~const' syntax).
	ModConstConditional
)

func (m Modifier) String() string {
	switch m {
	case ModPlain:
		return "plain"
	case ModConstConditional:
		return "~const"
	}
	return "unknown"
}

// Trait is a resolved trait declaration. ConstCapable is true only when the
// declaration was explicitly marked; it is never inferred.
type Trait struct {
	Name         string
	Path         string // fully qualified path, used in messages and fixes
	ConstCapable bool
	Span         source.Span
}

// QualifiedPath returns the path when declared, falling back to the name.
func (t *Trait) QualifiedPath() string {
	if t.Path != "" {
		return t.Path
	}
	return t.Name
}

// Impl is a resolved (type, trait) implementation. ConstImpl marks an impl
// declared usable in constant evaluation.
type Impl struct {
	Type      string
	Trait     string
	ConstImpl bool
	Span      source.Span
}

// BoundEntry is one declared bound on a type parameter. A parameter may
// carry several entries for the same trait with distinct modifiers; they
// are distinct facts and are never folded.
type BoundEntry struct {
	Trait    string
	Modifier Modifier
	Span     source.Span
}

// ParamBounds is the ordered bound list of one type parameter.
type ParamBounds struct {
	Name    string
	Entries []BoundEntry
}

// HasConstBound reports whether the parameter carries a '~const' entry for
// the given trait.
func (pb *ParamBounds) HasConstBound(trait string) bool {
	for i := range pb.Entries {
		if pb.Entries[i].Trait == trait && pb.Entries[i].Modifier == ModConstConditional {
			return true
		}
	}
	return false
}

// InsertionPoint returns the zero-width span after the last declared bound,
// where an additional bound can be appended. ok is false when the parameter
// has no bounds to append to.
func (pb *ParamBounds) InsertionPoint() (source.Span, bool) {
	if len(pb.Entries) == 0 {
		return source.Span{}, false
	}
	return pb.Entries[len(pb.Entries)-1].Span.After(), true
}

// BoundSet maps a function's type parameters to their declared bounds,
// preserving declaration order.
type BoundSet struct {
	params []ParamBounds
	index  map[string]int
}

// NewBoundSet builds a BoundSet from parameter bound lists in declaration
// order.
func NewBoundSet(params []ParamBounds) *BoundSet {
	bs := &BoundSet{
		params: params,
		index:  make(map[string]int, len(params)),
	}
	for i := range params {
		bs.index[params[i].Name] = i
	}
	return bs
}

// Param returns the bound list for a type parameter, if declared.
func (bs *BoundSet) Param(name string) (*ParamBounds, bool) {
	if bs == nil {
		return nil, false
	}
	i, ok := bs.index[name]
	if !ok {
		return nil, false
	}
	return &bs.params[i], true
}

// Params returns all parameters in declaration order.
// Callers must not modify the returned slice.
func (bs *BoundSet) Params() []ParamBounds {
	if bs == nil {
		return nil
	}
	return bs.params
}

// CallSite is one trait-method invocation inside a function body that
// requires const-safety. Operator expressions arrive already desugared into
// method calls with OperatorDesugared set.
type CallSite struct {
	// Receiver names either a type parameter of the enclosing function or a
	// concrete type; ReceiverParam tells which.
	Receiver          string
	ReceiverParam     bool
	Trait             string
	Method            string
	Span              source.Span
	OperatorDesugared bool
}

// Func is one checked function body: its bound set and the ordered call
// sites the body traversal produced. ConstRequired marks bodies that must
// be evaluable at compile time; others are skipped entirely.
type Func struct {
	Name          string
	ConstRequired bool
	Bounds        *BoundSet
	Calls         []CallSite
	Span          source.Span
}
