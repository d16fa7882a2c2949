package domain

import (
	"strings"

	dErrors "carefund/pkg/domain-errors"
)

// Principal is an opaque authenticated caller identifier (an address-like
// value supplied by the outer system). The core never interprets it beyond
// equality and zero checks.
//
// Usage: construct via ParsePrincipal at trust boundaries; direct casting
// bypasses validation.
type Principal string

// ZeroPrincipal is the absent principal (e.g. "no guardian").
const ZeroPrincipal Principal = ""

const maxPrincipalLen = 64

// ParsePrincipal constructs a Principal from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, contains
// whitespace, or exceeds the length bound; no other errors are expected.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return ZeroPrincipal, dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	if len(s) > maxPrincipalLen {
		return ZeroPrincipal, dErrors.New(dErrors.CodeInvalidInput, "principal too long")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return ZeroPrincipal, dErrors.New(dErrors.CodeInvalidInput, "principal cannot contain whitespace")
	}
	return Principal(s), nil
}

// IsZero reports whether p is the absent principal.
func (p Principal) IsZero() bool { return p == ZeroPrincipal }

func (p Principal) String() string { return string(p) }
