package reactive

import (
	"reflect"
	"sync"
)

// Signal is a reactive value container. Reading it with Get while a
// listener is installed (a component render) subscribes that listener;
// a write that changes the value marks every subscriber dirty, or queues
// them when a Batch is open.
type Signal[T any] struct {
	id    uint64
	equal func(T, T) bool

	mu    sync.Mutex
	value T
	subs  []Listener
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{id: nextID(), value: initial}
}

// Get returns the current value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	l := currentListener()

	s.mu.Lock()
	defer s.mu.Unlock()
	if l != nil && s.indexOf(l.ID()) < 0 {
		s.subs = append(s.subs, l)
	}
	return s.value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores value and notifies subscribers if it differs from the current
// value.
func (s *Signal[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update replaces the value with fn(current) under the signal's lock and
// notifies subscribers if it changed. fn must not touch the signal.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if s.equals(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	subs := append([]Listener(nil), s.subs...)
	s.mu.Unlock()

	notify(subs)
}

// Unsubscribe removes l from the signal's subscribers.
func (s *Signal[T]) Unsubscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(l.ID()); i >= 0 {
		s.subs = append(s.subs[:i], s.subs[i+1:]...)
	}
}

// Subscribers returns the number of subscribed listeners.
func (s *Signal[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// WithEquals sets the equality used to detect changes and returns s.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// indexOf finds a subscriber by listener ID. Caller holds mu.
func (s *Signal[T]) indexOf(id uint64) int {
	for i, l := range s.subs {
		if l.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals compares pointers by identity, scalars with == and
// composite values with reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	ra, rb := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if !ra.IsValid() || !rb.IsValid() {
		return ra.IsValid() == rb.IsValid()
	}
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Struct, reflect.Array, reflect.Slice, reflect.Map, reflect.Func:
		return reflect.DeepEqual(a, b)
	default:
		return any(a) == any(b)
	}
}
