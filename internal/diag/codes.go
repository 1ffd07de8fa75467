package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is reserved for diagnostics without an assigned code.
	UnknownCode Code = 0

	// Registry validation (impl/trait consistency).
	RegInfo                  Code = 1000
	RegInconsistentConstImpl Code = 1001

	// Bound signature validation.
	BndInfo                 Code = 2000
	BndInvalidConstModifier Code = 2001

	// Const obligation checking.
	ChkInfo         Code = 3000
	ChkNonConstCall Code = 3001
)

var codeDescription = map[Code]string{
	UnknownCode:              "unknown error",
	RegInfo:                  "registry information",
	RegInconsistentConstImpl: "const impl for non-const trait",
	BndInfo:                  "bound information",
	BndInvalidConstModifier:  "'~const' applied to a trait that is not const-capable",
	ChkInfo:                  "obligation information",
	ChkNonConstCall:          "non-const call in constant context",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("REG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CHK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
