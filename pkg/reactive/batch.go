package reactive

// DebugMode enables dev-time validation such as hook order checking.
// Set it at startup; do not change it while components are mounted.
var DebugMode bool

// Batch groups signal updates into a single notification phase.
// Listeners affected inside fn are marked dirty once, in the order they
// were first affected, when the outermost batch on this goroutine ends.
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
//	// Component marked dirty once
func Batch(fn func()) {
	var queued []Listener
	defer func() {
		for _, l := range queued {
			l.MarkDirty()
		}
	}()

	within(func(s *scope) func(*scope) {
		s.depth++
		return func(s *scope) {
			s.depth--
			if s.depth == 0 {
				queued = s.queued
				s.queued, s.seen = nil, nil
			}
		}
	}, fn)
}

// notify marks ls dirty, or queues them on the open batch.
func notify(ls []Listener) {
	if len(ls) == 0 {
		return
	}
	if !batching() {
		for _, l := range ls {
			l.MarkDirty()
		}
		return
	}

	s := peekScope()
	if s.seen == nil {
		s.seen = make(map[uint64]bool)
	}
	for _, l := range ls {
		if id := l.ID(); !s.seen[id] {
			s.seen[id] = true
			s.queued = append(s.queued, l)
		}
	}
}

// Untracked runs fn without tracking signal reads as dependencies.
// For single reads, prefer signal.Peek().
func Untracked(fn func()) {
	WithListener(nil, fn)
}
