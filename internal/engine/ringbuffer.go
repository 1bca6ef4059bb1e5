package engine

import "sync"

// RingBuffer is a thread-safe, fixed-capacity history. Once full, each Add
// evicts the oldest entry.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	buf   []T
	start int
	size  int
}

// NewRingBuffer creates a buffer holding at most capacity items. Capacities
// below one are raised to one.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{buf: make([]T, max(capacity, 1))}
}

// Add appends item.
func (r *RingBuffer[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = item
		r.size++
		return
	}
	r.buf[r.start] = item
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.buf) }

// All returns the items oldest first.
func (r *RingBuffer[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Last returns the newest item.
func (r *RingBuffer[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.buf[(r.start+r.size-1)%len(r.buf)], true
}

// Reset drops every item.
func (r *RingBuffer[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.start, r.size = 0, 0
}

// Map projects the items, oldest first. A nil buffer maps to nil.
func Map[T, U any](r *RingBuffer[T], fn func(T) U) []U {
	if r == nil {
		return nil
	}
	items := r.All()
	out := make([]U, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
