package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("pool: closed")
	// ErrPanic wraps a panic raised by a solve task.
	ErrPanic = errors.New("pool: solve task panicked")
)

// SolvePool runs volume solves on a fixed set of goroutines shared by every
// manifold pipeline of a search. Each (manifold, slope) solve is one task;
// a batch of tasks is submitted and awaited with Run.
type SolvePool struct {
	size     int
	tasks    chan func()
	mu       sync.RWMutex // guards sends on tasks against Close
	closed   atomic.Bool
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// NewSolvePool starts a pool of size goroutines. A size of zero or less
// means runtime.GOMAXPROCS(0).
//
// Solves are usually dominated by the external engine, so sizing above
// GOMAXPROCS pays off when the engine runs out of process.
func NewSolvePool(size int) *SolvePool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &SolvePool{
		size:  size,
		tasks: make(chan func(), size*2),
	}
	p.wg.Add(size)
	for range size {
		go p.work()
	}
	return p
}

// Size returns the number of solver goroutines.
func (p *SolvePool) Size() int {
	return p.size
}

// InFlight returns the number of tasks queued or running.
func (p *SolvePool) InFlight() int64 {
	return p.inFlight.Load()
}

// work runs tasks until the queue is closed and drained.
func (p *SolvePool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Run calls fn(0..n-1) on the pool and waits for every call that was
// enqueued. It stops enqueueing when ctx ends or the pool closes, and
// reports the first panic raised by fn as ErrPanic.
func (p *SolvePool) Run(ctx context.Context, n int, fn func(i int)) error {
	var (
		wg       sync.WaitGroup
		panicked error
		once     sync.Once
	)
	for i := range n {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer p.inFlight.Add(-1)
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { panicked = fmt.Errorf("%w: task %d: %v", ErrPanic, i, r) })
				}
			}()
			fn(i)
		}
		if err := p.enqueue(ctx, task); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return panicked
}

func (p *SolvePool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.inFlight.Add(1)
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		p.inFlight.Add(-1)
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued solves to finish.
func (p *SolvePool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.mu.Lock()
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
