package reactive

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// scope is the reactive state of one goroutine: who owns hooks created
// now, who is subscribed by signal reads, and the listeners queued by an
// open Batch.
type scope struct {
	owner    *Owner
	listener Listener

	depth  int
	queued []Listener
	seen   map[uint64]bool
}

func (s *scope) idle() bool {
	return s.owner == nil && s.listener == nil && s.depth == 0
}

// scopes maps goroutine IDs to their scope. A scope is dropped as soon as
// it is idle again, so goroutines that end leave nothing behind.
var scopes sync.Map

// goroutineID parses the ID from the "goroutine N [...]" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	header := buf[:runtime.Stack(buf[:], false)]
	header = bytes.TrimPrefix(header, []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}
	id, _ := strconv.ParseUint(string(header), 10, 64)
	return id
}

func currentScope() (uint64, *scope) {
	gid := goroutineID()
	if s, ok := scopes.Load(gid); ok {
		return gid, s.(*scope)
	}
	s := &scope{}
	scopes.Store(gid, s)
	return gid, s
}

// peekScope returns the goroutine's scope without creating one.
func peekScope() *scope {
	if s, ok := scopes.Load(goroutineID()); ok {
		return s.(*scope)
	}
	return nil
}

// within runs fn with the scope changed by enter, then undoes it.
func within(enter func(*scope) func(*scope), fn func()) {
	gid, s := currentScope()
	leave := enter(s)
	defer func() {
		leave(s)
		if s.idle() {
			scopes.Delete(gid)
		}
	}()
	fn()
}

func currentListener() Listener {
	if s := peekScope(); s != nil {
		return s.listener
	}
	return nil
}

func currentOwner() *Owner {
	if s := peekScope(); s != nil {
		return s.owner
	}
	return nil
}

func batching() bool {
	s := peekScope()
	return s != nil && s.depth > 0
}

// CurrentOwner returns the owner active on this goroutine, or nil.
func CurrentOwner() *Owner {
	return currentOwner()
}

// WithOwner runs fn with owner as the current owner.
// Hooks called inside fn belong to owner.
//
//	go func() {
//	    WithOwner(parentOwner, func() {
//	        OnUnmount(stop)
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	within(func(s *scope) func(*scope) {
		prev := s.owner
		s.owner = owner
		return func(s *scope) { s.owner = prev }
	}, fn)
}

// WithListener runs fn with l subscribed by every signal read.
// Used by the host to track component renders.
func WithListener(l Listener, fn func()) {
	within(func(s *scope) func(*scope) {
		prev := s.listener
		s.listener = l
		return func(s *scope) { s.listener = prev }
	}, fn)
}
