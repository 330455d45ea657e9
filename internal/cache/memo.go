package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Memo remembers the result of a computation per key. Concurrent calls for
// the same key share one computation. Errors are remembered like values,
// except when the computing caller's context ended during the computation.
// Such a failure is returned to that caller only; callers that joined the
// computation and are still live compute the key again.
type Memo[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]memoEntry[V]
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type memoEntry[V any] struct {
	value V
	err   error
}

// abandonedError carries the failure of a computation whose caller's
// context ended before it finished.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }

// NewMemo returns an empty memo.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: make(map[K]memoEntry[V])}
}

// Do returns the remembered result for key, computing it with fn on the
// first call.
func (m *Memo[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	if e, ok := m.lookup(key); ok {
		m.hits.Add(1)
		return e.value, e.err
	}

	for {
		leader := false
		res, err, shared := m.group.Do(fmt.Sprint(key), func() (any, error) {
			leader = true
			// A concurrent caller may have stored the entry between lookup
			// and entering the flight.
			if e, ok := m.lookup(key); ok {
				return e.value, e.err
			}
			v, err := fn()
			if err != nil && ctx.Err() != nil {
				return v, &abandonedError{err: err}
			}
			m.mu.Lock()
			m.entries[key] = memoEntry[V]{value: v, err: err}
			m.mu.Unlock()
			return v, err
		})
		v, _ := res.(V)

		var ab *abandonedError
		if errors.As(err, &ab) {
			if leader {
				m.misses.Add(1)
				return v, ab.err
			}
			if cerr := ctx.Err(); cerr != nil {
				var zero V
				return zero, cerr
			}
			continue
		}
		if shared && !leader {
			m.hits.Add(1)
		} else {
			m.misses.Add(1)
		}
		return v, err
	}
}

// Get returns a remembered result without computing.
func (m *Memo[K, V]) Get(key K) (V, error, bool) {
	e, ok := m.lookup(key)
	return e.value, e.err, ok
}

// Len returns the number of remembered keys.
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns memo statistics. Calls that joined an in-flight computation
// count as hits.
func (m *Memo[K, V]) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

func (m *Memo[K, V]) lookup(key K) (memoEntry[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}
