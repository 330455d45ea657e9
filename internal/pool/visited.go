package pool

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// DefaultVisitedCapacity covers the slopes of a bound-100 domain.
const DefaultVisitedCapacity = 1 << 15

var visitedPool = sync.Pool{
	New: func() any {
		return bitset.New(DefaultVisitedCapacity)
	},
}

// GetVisited returns a cleared bitset able to hold n bits without growing.
func GetVisited(n uint) *bitset.BitSet {
	b := visitedPool.Get().(*bitset.BitSet)
	b.ClearAll()
	if b.Len() < n {
		b = bitset.New(n)
	}
	return b
}

// PutVisited returns a bitset to the pool.
func PutVisited(b *bitset.BitSet) {
	if b == nil {
		return
	}
	visitedPool.Put(b)
}
