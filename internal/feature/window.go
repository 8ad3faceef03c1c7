// Package feature maintains the streaming inputs fed to the prediction model.
package feature

import (
	"fmt"

	"github.com/moznion/go-optional"
)

// Window is a fixed-capacity FIFO over the most recent values of a stream.
// Push and eviction are O(1). Instances are single-owner; callers serialize
// access.
type Window[T any] struct {
	buf   []T
	head  int
	count int
}

// NewWindow allocates a window holding the last capacity values. Capacity
// below one is a programmer error and panics.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("feature: window capacity %d, want >= 1", capacity))
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v. When the window is already full it evicts and returns the
// oldest value, otherwise None.
func (w *Window[T]) Push(v T) optional.Option[T] {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = v
		w.count++
		return optional.None[T]()
	}
	evicted := w.buf[w.head]
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	return optional.Some(evicted)
}

// Full reports whether the window holds capacity values.
func (w *Window[T]) Full() bool { return w.count == len(w.buf) }

// Len returns the number of values currently held.
func (w *Window[T]) Len() int { return w.count }

// Cap returns the fixed capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// Values copies the contents oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, 0, w.count)
	for i := 0; i < w.count; i++ {
		out = append(out, w.buf[(w.head+i)%len(w.buf)])
	}
	return out
}
