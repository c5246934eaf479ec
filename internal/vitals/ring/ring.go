// Package ring provides the fixed-capacity FIFO used throughout the vitals
// pipeline. Pushing into a full buffer evicts the oldest element.
package ring

import "fmt"

// Buffer is a fixed-capacity FIFO. Length never exceeds the configured
// capacity and iteration order is insertion order (oldest first).
//
// Buffer is not safe for concurrent use; each pipeline owns its buffers.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New returns an empty buffer holding at most capacity elements.
// It panics if capacity is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ring: capacity must be positive, got %d", capacity))
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when the buffer is full.
// The evicted element is returned with ok=true.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = v
		b.size++
		return evicted, false
	}
	evicted = b.items[b.head]
	b.items[b.head] = v
	b.head = (b.head + 1) % capacity
	return evicted, true
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the configured capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Full reports whether the next Push will evict.
func (b *Buffer[T]) Full() bool { return b.size == len(b.items) }

// At returns the i-th element, oldest first. It panics when i is out of range.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("ring: index %d out of range [0,%d)", i, b.size))
	}
	return b.items[(b.head+i)%len(b.items)]
}

// Last returns the most recently pushed element.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.At(b.size - 1), true
}

// Values returns a copy of the contents, oldest first.
func (b *Buffer[T]) Values() []T {
	return b.Tail(b.size)
}

// Tail returns a copy of the newest n elements, oldest first. n is clamped
// to the buffer length.
func (b *Buffer[T]) Tail(n int) []T {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	start := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.At(start + i)
	}
	return out
}

// Clear empties the buffer without releasing its storage.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}
