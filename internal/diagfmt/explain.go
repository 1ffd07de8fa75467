package diagfmt

import (
	"strings"

	"constcheck/internal/diag"
)

var explanations = map[string]string{
	diag.RegInconsistentConstImpl.ID(): `An impl was declared usable in constant evaluation, but the trait it
implements is not const-capable.

A const impl promises that every method of the trait can run during
constant evaluation. The compiler can only hold that promise when the
trait itself guarantees its default method bodies are const-safe, which
requires an explicit const-capability marker on the trait declaration.

Either mark the trait as const-capable, or drop the const qualifier from
the impl.`,

	diag.BndInvalidConstModifier.ID(): `A '~const' modifier was attached to a bound whose trait is not
const-capable.

'~const' asserts that, for the chosen type argument, the trait's
implementation may be required to run during constant evaluation. That
assertion is only meaningful for traits explicitly marked const-capable;
for any other trait no implementation can be verified const-safe.

Remove the '~const' modifier, or mark the trait const-capable.

Note: when deduplication is disabled this diagnostic may appear once per
checking stage that scanned the bound; repeats carry an explanatory note
and are counted individually.`,

	diag.ChkNonConstCall.ID(): `A function body that must be evaluable at compile time calls a trait
method (possibly through operator syntax) whose implementation is not
guaranteed const-capable.

For a receiver typed by a generic parameter, the obligation is discharged
only by a '~const' bound for the called trait on that parameter of the
enclosing function; a plain bound makes no constness promise, and an
outer function's '~const' bound is never inherited. For a concrete
receiver, the resolved impl itself must be declared const.

The usual fix is to further restrict the parameter's bounds, e.g.:

    const fn check<T: Eq2 + ~const Eq2>(a: T, b: T) -> bool { ... }`,
}

// Explain returns the long-form explanation for a diagnostic code ID such
// as "CHK3001". Lookup is case-insensitive.
func Explain(codeID string) (string, bool) {
	text, ok := explanations[strings.ToUpper(strings.TrimSpace(codeID))]
	return text, ok
}
