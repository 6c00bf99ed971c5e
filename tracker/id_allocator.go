package tracker

import "go.uber.org/atomic"

// IDAllocator hands out process-wide unique, monotonically increasing feature ids. One
// allocator is shared by every camera's tracker.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator returns an allocator whose first id is 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns an id that has never been returned before.
func (a *IDAllocator) Next() int {
	return int(a.next.Inc() - 1)
}

// Peek returns the id the next call to Next will return.
func (a *IDAllocator) Peek() int {
	return int(a.next.Load())
}
