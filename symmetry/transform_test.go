package symmetry

import (
	"testing"

	"github.com/hupe1980/dehnvol/slope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func m136() []Transform {
	return []Transform{
		Matrix(0, 4, 1, 0, 2),
		Matrix(1, 0, 0, -1, 1),
		Matrix(0, -4, 1, 0, 2),
	}
}

func TestTransform_Validate(t *testing.T) {
	tests := []struct {
		name string
		t    Transform
		ok   bool
	}{
		{"Mirror", Mirror(), true},
		{"Exchange", Exchange(), true},
		{"Negate", Negate(), true},
		{"Rational", Matrix(0, 4, 1, 0, 2), true},
		{"ZeroDenominator", Matrix(1, 0, 0, 1, 0), false},
		{"NegativeDenominator", Matrix(1, 0, 0, 1, -1), false},
		{"WrongDeterminant", Matrix(2, 0, 0, 1, 1), false},
		{"Singular", Matrix(1, 1, 1, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedEntry)
			}
		})
	}
}

func TestTransform_Apply(t *testing.T) {
	img, ok := Mirror().Apply(slope.New(3, 1))
	require.True(t, ok)
	assert.Equal(t, slope.New(-3, 1), img)

	img, ok = Exchange().Apply(slope.New(7, 11))
	require.True(t, ok)
	assert.Equal(t, slope.New(11, 7), img)

	img, ok = Matrix(0, 4, 1, 0, 2).Apply(slope.New(2, 1))
	require.True(t, ok)
	assert.Equal(t, slope.New(2, 1), img)

	_, ok = Matrix(0, 4, 1, 0, 2).Apply(slope.New(3, 1))
	assert.False(t, ok, "odd p has no integral image")
}

func TestTransform_InverseIdempotence(t *testing.T) {
	transforms := append(m136(), Mirror(), Exchange(), Negate(), Matrix(2, 1, 1, 1, 1), Matrix(3, 5, 1, 2, 1))
	d := slope.Domain{Bound: 12}
	for _, tr := range transforms {
		inv := tr.Inverse()
		require.NoError(t, inv.Validate(), "%v", tr)
		for p := range slope.NewEnumerator(d).All() {
			img, ok := tr.Apply(p)
			if !ok {
				continue
			}
			back, ok := inv.Apply(img)
			require.True(t, ok, "%v on %v", tr, p)
			assert.Equal(t, p, back, "%v on %v", tr, p)
		}
		assert.True(t, tr.Compose(inv).IsIdentity(), "%v", tr)
		assert.True(t, inv.Compose(tr).IsIdentity(), "%v", tr)
	}
}

func TestTransform_Compose(t *testing.T) {
	ts := m136()
	assert.True(t, ts[0].Compose(ts[1]).Equal(ts[2]))
	assert.True(t, ts[0].Compose(ts[0]).IsIdentity())

	// Composition applies the right operand first.
	sq := Matrix(2, 1, 1, 1, 1)
	p := slope.New(1, 2)
	a, _ := Exchange().Apply(p)
	want, _ := sq.Apply(a)
	got, ok := sq.Compose(Exchange()).Apply(p)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTransform_Normalize(t *testing.T) {
	n := Matrix(0, 8, 2, 0, 4).Normalize()
	assert.Equal(t, [5]int{0, 4, 1, 0, 2}, n.Descriptor())

	assert.True(t, Matrix(-1, 0, 0, -1, 1).Equal(Identity()))
	assert.True(t, Negate().IsIdentity(), "negation fixes every slope")
}

func TestNamed(t *testing.T) {
	for _, k := range []Kind{KindMirror, KindExchange, KindNegate, "MIRROR"} {
		tr, err := Named(k)
		require.NoError(t, err)
		require.NoError(t, tr.Validate())
	}
	_, err := Named("rotate")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTransform_String(t *testing.T) {
	assert.Equal(t, "mirror", Mirror().String())
	assert.Equal(t, "[0, 4, 1, 0]/2", Matrix(0, 4, 1, 0, 2).String())
	tr := Matrix(0, 4, 1, 0, 2)
	tr.Name = "tau"
	assert.Equal(t, "tau [0, 4, 1, 0]/2", tr.String())
}
