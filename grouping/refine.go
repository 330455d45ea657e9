package grouping

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/hupe1980/dehnvol/slope"
)

// ErrInvalidStage is returned for a refinement stage that cannot be used.
var ErrInvalidStage = errors.New("grouping: invalid refinement stage")

// Stage is one precision refinement step: volumes are recomputed with Bits of
// mantissa and compared with the absolute Tolerance.
type Stage struct {
	Bits      uint   `json:"bits" yaml:"bits"`
	Tolerance string `json:"tolerance" yaml:"tolerance"`
}

// DefaultStages mirror the usual engine settings: a 64-bit solve compared to
// 1e-15, then a 212-bit solve compared to 1e-62.
var DefaultStages = []Stage{
	{Bits: 64, Tolerance: "1e-15"},
	{Bits: 212, Tolerance: "1e-62"},
}

// Epsilon parses the stage tolerance at the stage precision.
func (s Stage) Epsilon() (*big.Float, error) {
	if s.Bits == 0 {
		return nil, fmt.Errorf("%w: zero bits", ErrInvalidStage)
	}
	eps, _, err := big.ParseFloat(s.Tolerance, 10, s.Bits+32, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("%w: tolerance %q: %w", ErrInvalidStage, s.Tolerance, err)
	}
	if eps.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tolerance %q must be positive", ErrInvalidStage, s.Tolerance)
	}
	return eps, nil
}

// PreciseSample is a volume computed at extended precision.
type PreciseSample struct {
	Pair   slope.Pair
	Volume *big.Float
}

// Refine partitions precise samples with the absolute tolerance eps, chaining
// links exactly like Partition. The returned groups carry float64 volumes
// rounded from the precise ones and Bits set to bits.
func Refine(samples []PreciseSample, eps *big.Float, bits uint) ([]Group, error) {
	if eps == nil || eps.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tolerance must be positive", ErrInvalidStage)
	}
	seen := make(map[slope.Pair]struct{}, len(samples))
	sorted := make([]PreciseSample, len(samples))
	for i, s := range samples {
		if s.Volume == nil || s.Volume.IsInf() || s.Volume.Sign() <= 0 {
			return nil, fmt.Errorf("%w: at %v", ErrInvalidVolume, s.Pair)
		}
		c := s.Pair.Canonical()
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicatePair, c)
		}
		seen[c] = struct{}{}
		sorted[i] = PreciseSample{Pair: c, Volume: s.Volume}
	}
	slices.SortFunc(sorted, func(a, b PreciseSample) int {
		if c := a.Volume.Cmp(b.Volume); c != 0 {
			return c
		}
		return slope.Compare(a.Pair, b.Pair)
	})

	diff := new(big.Float).SetPrec(max(bits, 64) + 32)
	sets := sweep(len(sorted), func(i, j int) (bool, bool) {
		diff.Sub(sorted[j].Volume, sorted[i].Volume)
		if diff.Cmp(eps) <= 0 {
			return true, false
		}
		return false, true
	})

	groups := make([]Group, 0, len(sets))
	for _, set := range sets {
		members := make([]Sample, len(set))
		for k, i := range set {
			v, _ := sorted[i].Volume.Float64()
			members[k] = Sample{Pair: sorted[i].Pair, Volume: v}
		}
		groups = append(groups, newGroup(members, bits))
	}
	sortGroups(groups)
	return groups, nil
}
