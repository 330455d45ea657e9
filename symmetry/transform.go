package symmetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/dehnvol/slope"
)

var (
	// ErrMalformedEntry is wrapped by every per-entry validation error.
	ErrMalformedEntry = errors.New("symmetry: malformed entry")
	// ErrUnknownKind is returned for an unrecognized transform kind.
	ErrUnknownKind = errors.New("symmetry: unknown transform kind")
)

// Kind names a transform family.
type Kind string

const (
	// KindMatrix is a general matrix transform.
	KindMatrix Kind = "matrix"
	// KindMirror maps (p, q) to (-p, q).
	KindMirror Kind = "mirror"
	// KindExchange maps (p, q) to (q, p).
	KindExchange Kind = "exchange"
	// KindNegate maps (p, q) to (-p, -q).
	KindNegate Kind = "negate"
)

// Transform is a declared symmetry: the matrix Matrix over Denominator.
type Transform struct {
	Kind Kind
	// Name is an optional label carried into reports.
	Name string
	// Matrix holds a, b, c, d in row order.
	Matrix      [4]int
	Denominator int
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Kind: KindMatrix, Matrix: [4]int{1, 0, 0, 1}, Denominator: 1}
}

// Mirror returns (p, q) -> (-p, q).
func Mirror() Transform {
	return Transform{Kind: KindMirror, Matrix: [4]int{-1, 0, 0, 1}, Denominator: 1}
}

// Exchange returns (p, q) -> (q, p).
func Exchange() Transform {
	return Transform{Kind: KindExchange, Matrix: [4]int{0, 1, 1, 0}, Denominator: 1}
}

// Negate returns (p, q) -> (-p, -q).
func Negate() Transform {
	return Transform{Kind: KindNegate, Matrix: [4]int{-1, 0, 0, -1}, Denominator: 1}
}

// Named compiles a named kind to its transform.
func Named(kind Kind) (Transform, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindMirror:
		return Mirror(), nil
	case KindExchange:
		return Exchange(), nil
	case KindNegate:
		return Negate(), nil
	default:
		return Transform{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Matrix builds a matrix transform from the five-integer form [a, b, c, d, n].
func Matrix(a, b, c, d, n int) Transform {
	return Transform{Kind: KindMatrix, Matrix: [4]int{a, b, c, d}, Denominator: n}
}

// Det returns ad - bc.
func (t Transform) Det() int {
	return t.Matrix[0]*t.Matrix[3] - t.Matrix[1]*t.Matrix[2]
}

// Validate checks n > 0 and ad - bc = ±n².
func (t Transform) Validate() error {
	n := t.Denominator
	if n <= 0 {
		return fmt.Errorf("%w: denominator %d must be positive", ErrMalformedEntry, n)
	}
	det := t.Det()
	if det != n*n && det != -n*n {
		return fmt.Errorf("%w: determinant %d is not ±%d", ErrMalformedEntry, det, n*n)
	}
	return nil
}

// Normalize divides out the common factor of the entries and the
// denominator. The action on slopes is unchanged.
func (t Transform) Normalize() Transform {
	g := slope.GCD(slope.GCD(slope.GCD(t.Matrix[0], t.Matrix[1]), slope.GCD(t.Matrix[2], t.Matrix[3])), t.Denominator)
	if g == 0 {
		return t
	}
	if t.Denominator < 0 {
		g = -g
	}
	if g == 1 {
		return t
	}
	out := t
	for i := range out.Matrix {
		out.Matrix[i] /= g
	}
	out.Denominator /= g
	return out
}

// Apply maps p to ((ap+bq)/n, (cp+dq)/n). ok is false when the image is not
// integral.
func (t Transform) Apply(p slope.Pair) (slope.Pair, bool) {
	n := t.Denominator
	if n == 0 {
		return slope.Pair{}, false
	}
	x := t.Matrix[0]*p.P + t.Matrix[1]*p.Q
	y := t.Matrix[2]*p.P + t.Matrix[3]*p.Q
	if x%n != 0 || y%n != 0 {
		return slope.Pair{}, false
	}
	return slope.Pair{P: x / n, Q: y / n}, true
}

// Inverse returns the exact inverse, ε/n·[d -b; -c a] with ε the sign of the
// determinant.
func (t Transform) Inverse() Transform {
	a, b, c, d := t.Matrix[0], t.Matrix[1], t.Matrix[2], t.Matrix[3]
	eps := 1
	if t.Det() < 0 {
		eps = -1
	}
	inv := Transform{
		Kind:        t.Kind,
		Matrix:      [4]int{eps * d, -eps * b, -eps * c, eps * a},
		Denominator: t.Denominator,
	}
	if t.Name != "" {
		inv.Name = t.Name + "⁻¹"
	}
	return inv
}

// Compose returns the transform applying u first, then t.
func (t Transform) Compose(u Transform) Transform {
	a, b, c, d := t.Matrix[0], t.Matrix[1], t.Matrix[2], t.Matrix[3]
	e, f, g, h := u.Matrix[0], u.Matrix[1], u.Matrix[2], u.Matrix[3]
	return Transform{
		Kind:        KindMatrix,
		Matrix:      [4]int{a*e + b*g, a*f + b*h, c*e + d*g, c*f + d*h},
		Denominator: t.Denominator * u.Denominator,
	}.Normalize()
}

// Equal reports whether t and u act identically on slopes, i.e. they agree
// up to a scalar (including the sign, since PSL identifies M and -M).
func (t Transform) Equal(u Transform) bool {
	x, y := t.Normalize(), u.Normalize()
	if x.Matrix == y.Matrix && x.Denominator == y.Denominator {
		return true
	}
	neg := y.Matrix
	for i := range neg {
		neg[i] = -neg[i]
	}
	return x.Matrix == neg && x.Denominator == y.Denominator
}

// IsIdentity reports whether t fixes every slope.
func (t Transform) IsIdentity() bool {
	return t.Equal(Identity())
}

// Descriptor returns the five-integer form [a, b, c, d, n].
func (t Transform) Descriptor() [5]int {
	return [5]int{t.Matrix[0], t.Matrix[1], t.Matrix[2], t.Matrix[3], t.Denominator}
}

// String renders the transform as its kind or as [a, b, c, d]/n.
func (t Transform) String() string {
	label := ""
	if t.Name != "" {
		label = t.Name + " "
	}
	if t.Kind != "" && t.Kind != KindMatrix {
		return label + string(t.Kind)
	}
	m := t.Matrix
	return fmt.Sprintf("%s[%d, %d, %d, %d]/%d", label, m[0], m[1], m[2], m[3], t.Denominator)
}
