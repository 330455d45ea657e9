package slope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPair is returned when a textual slope cannot be parsed.
var ErrInvalidPair = errors.New("slope: invalid pair")

// Pair is an ordered pair of filling coefficients (p, q).
type Pair struct {
	P int
	Q int
}

// New returns the pair (p, q) as given, without canonicalization.
func New(p, q int) Pair {
	return Pair{P: p, Q: q}
}

// IsZero reports whether the pair is (0, 0).
func (x Pair) IsZero() bool {
	return x.P == 0 && x.Q == 0
}

// Neg returns (-p, -q), the same slope with opposite orientation.
func (x Pair) Neg() Pair {
	return Pair{P: -x.P, Q: -x.Q}
}

// Canonical returns the canonical representative of the slope: q > 0, or
// q == 0 and p >= 0.
func (x Pair) Canonical() Pair {
	if x.Q < 0 || (x.Q == 0 && x.P < 0) {
		return x.Neg()
	}
	return x
}

// IsCanonical reports whether x is its own canonical representative.
func (x Pair) IsCanonical() bool {
	return x == x.Canonical()
}

// Primitive reports whether gcd(p, q) == 1.
func (x Pair) Primitive() bool {
	return GCD(x.P, x.Q) == 1
}

// Norm returns max(|p|, |q|).
func (x Pair) Norm() int {
	return max(abs(x.P), abs(x.Q))
}

// Less orders pairs by (|p|+|q|, p, q), the enumeration order.
func (x Pair) Less(y Pair) bool {
	sx, sy := abs(x.P)+abs(x.Q), abs(y.P)+abs(y.Q)
	if sx != sy {
		return sx < sy
	}
	if x.P != y.P {
		return x.P < y.P
	}
	return x.Q < y.Q
}

// Compare is Less as a three-way comparison, for slices.SortFunc.
func Compare(x, y Pair) int {
	switch {
	case x.Less(y):
		return -1
	case y.Less(x):
		return 1
	default:
		return 0
	}
}

// String formats the pair as "(p,q)".
func (x Pair) String() string {
	return fmt.Sprintf("(%d,%d)", x.P, x.Q)
}

// Parse reads a pair written as "p/q", "p,q" or "(p,q)".
func Parse(s string) (Pair, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "(")
	t = strings.TrimSuffix(t, ")")
	sep := strings.IndexAny(t, "/,")
	if sep < 0 {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}
	p, err := strconv.Atoi(strings.TrimSpace(t[:sep]))
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %q: %w", ErrInvalidPair, s, err)
	}
	q, err := strconv.Atoi(strings.TrimSpace(t[sep+1:]))
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %q: %w", ErrInvalidPair, s, err)
	}
	return Pair{P: p, Q: q}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (x Pair) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Pair) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*x = p
	return nil
}

// GCD returns the non-negative greatest common divisor of a and b.
// GCD(0, 0) is 0.
func GCD(a, b int) int {
	a, b = abs(a), abs(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
