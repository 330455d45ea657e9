package model

import (
	"fmt"
	"strings"

	"github.com/hupe1980/dehnvol/slope"
)

// Manifold identifies a cusped hyperbolic 3-manifold.
// It is immutable for the duration of a search.
type Manifold struct {
	// Name is the census identifier, e.g. "m004".
	Name string
	// Handle is the geometric engine's representation. The search core never
	// inspects it; it is passed through to the volume oracle unchanged.
	Handle any
}

// String returns the manifold name.
func (m Manifold) String() string {
	return m.Name
}

// Named returns a Manifold without an engine handle.
func Named(name string) Manifold {
	return Manifold{Name: name}
}

// FailureKind classifies why a slope has no usable volume.
type FailureKind string

const (
	// FailureNonHyperbolic marks a filling that is not hyperbolic. It is an
	// expected outcome and excluded from grouping.
	FailureNonHyperbolic FailureKind = "non_hyperbolic"
	// FailureInconclusive marks a filling whose solve did not converge within
	// the retry budget.
	FailureInconclusive FailureKind = "inconclusive"
)

// Failure records a slope that was excluded from grouping.
type Failure struct {
	Pair     slope.Pair  `json:"pair"`
	Kind     FailureKind `json:"kind"`
	Attempts int         `json:"attempts"`
	// Stage is the precision (in bits) at which the failure happened; zero
	// means the initial standard-precision solve.
	Stage uint   `json:"stage,omitempty"`
	Err   string `json:"error,omitempty"`
}

// WarningKind classifies a warning.
type WarningKind string

const (
	// WarningMalformedSymmetry marks a symmetry table entry that failed
	// validation and was skipped.
	WarningMalformedSymmetry WarningKind = "malformed_symmetry_entry"
	// WarningUnknownManifold marks a symmetry table entry for a manifold the
	// catalog does not know.
	WarningUnknownManifold WarningKind = "unknown_manifold"
	// WarningInvariantViolation marks a symmetry orbit whose members fell into
	// different volume groups: either the table entry is wrong or the
	// tolerance is too tight.
	WarningInvariantViolation WarningKind = "invariant_violation"
)

// Warning is a non-fatal finding attached to a manifold, or to the batch when
// Manifold is empty.
type Warning struct {
	Kind     WarningKind  `json:"kind"`
	Manifold string       `json:"manifold,omitempty"`
	Pairs    []slope.Pair `json:"pairs,omitempty"`
	Message  string       `json:"message"`
}

// String renders the warning on one line.
func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(string(w.Kind))
	if w.Manifold != "" {
		fmt.Fprintf(&sb, " [%s]", w.Manifold)
	}
	sb.WriteString(": ")
	sb.WriteString(w.Message)
	if len(w.Pairs) > 0 {
		sb.WriteString(" ")
		for i, p := range w.Pairs {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(p.String())
		}
	}
	return sb.String()
}
