package constrait

import (
	"errors"
	"fmt"

	"constcheck/internal/diag"
)

// ErrNoImpl signals a resolver/checker inconsistency: the upstream resolver
// reported a successful resolution for a (type, trait) pair that the impl
// registry does not hold. It is a compiler-internal fault, never a user
// error.
var ErrNoImpl = errors.New("no impl record for resolved call")

// TraitRegistry answers const-capability queries for resolved traits.
// It is a read-only snapshot built once per compilation unit.
type TraitRegistry struct {
	traits map[string]*Trait
	order  []string
}

// NewTraitRegistry builds a registry from resolved trait declarations.
func NewTraitRegistry(traits []Trait) *TraitRegistry {
	r := &TraitRegistry{
		traits: make(map[string]*Trait, len(traits)),
		order:  make([]string, 0, len(traits)),
	}
	for i := range traits {
		t := traits[i]
		if _, ok := r.traits[t.Name]; !ok {
			r.order = append(r.order, t.Name)
		}
		r.traits[t.Name] = &t
	}
	return r
}

// Lookup returns the trait record by name.
func (r *TraitRegistry) Lookup(name string) (*Trait, bool) {
	t, ok := r.traits[name]
	return t, ok
}

// ImplRegistry answers impl lookups for resolved (type, trait) pairs.
// It is a read-only snapshot built once per compilation unit.
type ImplRegistry struct {
	impls map[implKey]*Impl
	order []implKey
}

type implKey struct {
	typ   string
	trait string
}

// NewImplRegistry builds a registry from resolved impl declarations.
func NewImplRegistry(impls []Impl) *ImplRegistry {
	r := &ImplRegistry{
		impls: make(map[implKey]*Impl, len(impls)),
		order: make([]implKey, 0, len(impls)),
	}
	for i := range impls {
		im := impls[i]
		key := implKey{typ: im.Type, trait: im.Trait}
		if _, ok := r.impls[key]; !ok {
			r.order = append(r.order, key)
		}
		r.impls[key] = &im
	}
	return r
}

// Lookup returns the impl for a concrete type and trait. A missing record
// is an invariant violation (the upstream resolver already succeeded), so
// the error wraps ErrNoImpl and must abort the compilation unit.
func (r *ImplRegistry) Lookup(typ, trait string) (*Impl, error) {
	im, ok := r.impls[implKey{typ: typ, trait: trait}]
	if !ok {
		return nil, fmt.Errorf("resolver reported an impl for %s: %s but the impl registry has none: %w", typ, trait, ErrNoImpl)
	}
	return im, nil
}

// Validate reports every impl declared const whose target trait is not
// const-capable ("const impl for non-const trait"). Declaration order is
// preserved for deterministic output.
func (r *ImplRegistry) Validate(traits *TraitRegistry, rep diag.Reporter) {
	for _, key := range r.order {
		im := r.impls[key]
		if !im.ConstImpl {
			continue
		}
		t, ok := traits.Lookup(im.Trait)
		if ok && t.ConstCapable {
			continue
		}
		b := diag.ReportError(rep, diag.RegInconsistentConstImpl, im.Span,
			fmt.Sprintf("const impl for non-const trait `%s`", im.Trait))
		if ok {
			b.WithNote(t.Span, fmt.Sprintf("`%s` is declared here without const capability", im.Trait))
		}
		b.Emit()
	}
}
