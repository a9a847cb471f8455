// Package ring provides a fixed-capacity circular buffer.
package ring

// Buffer holds the most recent values in a circular buffer.
// Once full, each Add overwrites the oldest value.
type Buffer[T any] struct {
	items []T
	size  int
	head  int // Points to the next available slot for writing
	count int // Number of elements currently in the buffer
}

// New creates a new Buffer with the given capacity.
func New[T any](size int) *Buffer[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &Buffer[T]{
		items: make([]T, size),
		size:  size,
	}
}

// Add appends v, overwriting the oldest value when the buffer is full.
func (b *Buffer[T]) Add(v T) {
	b.items[b.head] = v
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Len returns the number of values currently held.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.size
}

// At returns the i-th value in insertion order, 0 being the oldest retained.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.count {
		panic("ring buffer index out of range")
	}
	start := (b.head - b.count + b.size) % b.size
	return b.items[(start+i)%b.size]
}

// Latest returns the most recently added value.
func (b *Buffer[T]) Latest() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	return b.items[(b.head-1+b.size)%b.size], true
}

// Last returns a copy of the n most recent values, oldest first.
// If fewer than n values are held, all of them are returned.
func (b *Buffer[T]) Last(n int) []T {
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return []T{}
	}
	result := make([]T, n)
	offset := b.count - n
	for i := 0; i < n; i++ {
		result[i] = b.At(offset + i)
	}
	return result
}

// Chronological returns every held value in the order it was added.
func (b *Buffer[T]) Chronological() []T {
	if b.count == 0 {
		return []T{}
	}

	result := make([]T, b.count)
	if b.count < b.size { // Buffer not yet full
		copy(result, b.items[:b.head])
	} else { // Buffer is full, oldest element is at head
		copied := copy(result, b.items[b.head:])
		copy(result[copied:], b.items[:b.head])
	}
	return result
}
