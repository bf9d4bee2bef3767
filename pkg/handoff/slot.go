package handoff

import (
	"errors"
	"sync"
)

// ErrEmpty is returned by Wait when the slot was closed without a value.
var ErrEmpty = errors.New("slot closed without a value")

// Slot is a single-assignment cell guarded by a mutex and a condition
// variable. The zero value is not usable; create slots with New.
type Slot[T any] struct {
	mu     sync.Mutex
	ready  *sync.Cond
	value  T
	filled bool
	closed bool
}

// New creates an empty slot.
func New[T any]() *Slot[T] {
	s := &Slot[T]{}
	s.ready = sync.NewCond(&s.mu)
	return s
}

// Put stores v and wakes all waiters. It returns false, leaving the slot
// unchanged, if a value was already stored or the slot is closed.
func (s *Slot[T]) Put(v T) bool {
	s.mu.Lock()
	if s.filled || s.closed {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.filled = true
	s.mu.Unlock()

	s.ready.Broadcast()
	return true
}

// Close marks the slot as torn down and wakes all waiters. A value stored
// before Close stays readable. Close is idempotent.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.ready.Broadcast()
}

// Wait blocks until the slot holds a value or is closed.
func (s *Slot[T]) Wait() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.filled && !s.closed {
		s.ready.Wait()
	}
	if !s.filled {
		var zero T
		return zero, ErrEmpty
	}
	return s.value, nil
}

// Filled reports whether a value has been stored.
func (s *Slot[T]) Filled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled
}

// Closed reports whether Close has been called.
func (s *Slot[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
