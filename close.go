package dehnvol

// Close stops the worker pool. Searches running concurrently with Close fail
// with ErrClosed; queued solves still run to completion.
func (s *Searcher) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.pool.Close()
	})
	return nil
}
