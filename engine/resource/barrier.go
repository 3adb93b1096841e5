package resource

import "sync"

// Barrier is a countdown latch. It starts with a fixed number of outstanding completions and is ready once every
// one of them has been reported. A Barrier never becomes un-ready; build a new one to start over.
type Barrier struct {
	mu        *sync.Mutex
	total     int
	remaining int
	ready     chan struct{}
}

// NewBarrier creates a Barrier waiting for n completions. A Barrier with n <= 0 is ready immediately.
//
// Parameters:
//   - n: the number of completions to wait for
//
// Returns:
//   - *Barrier: the new barrier
func NewBarrier(n int) *Barrier {
	if n < 0 {
		n = 0
	}
	b := &Barrier{
		mu:        &sync.Mutex{},
		total:     n,
		remaining: n,
		ready:     make(chan struct{}),
	}
	if n == 0 {
		close(b.ready)
	}
	return b
}

// Done reports one completion. Calls after the barrier is ready are ignored.
//
// Returns:
//   - bool: true if this call made the barrier ready
func (b *Barrier) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining == 0 {
		return false
	}
	b.remaining--
	if b.remaining == 0 {
		close(b.ready)
		return true
	}
	return false
}

// Ready reports whether every completion has been reported.
func (b *Barrier) Ready() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// Remaining returns the number of completions still outstanding.
func (b *Barrier) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Total returns the number of completions the barrier was created with.
func (b *Barrier) Total() int {
	return b.total
}

// C returns a channel that is closed when the barrier becomes ready.
func (b *Barrier) C() <-chan struct{} {
	return b.ready
}
