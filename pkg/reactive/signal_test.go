package reactive

import (
	"sync"
	"testing"
)

// testListener records MarkDirty calls.
type testListener struct {
	id    uint64
	mu    sync.Mutex
	dirty int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirty++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 { return l.id }

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(1)
	if s.Get() != 1 {
		t.Fatalf("Get() = %d, want 1", s.Get())
	}
	s.Set(2)
	if s.Peek() != 2 {
		t.Fatalf("Peek() = %d, want 2", s.Peek())
	}
}

func TestSignalTracksListener(t *testing.T) {
	s := NewSignal(0)
	l := newTestListener()

	WithListener(l, func() {
		_ = s.Get()
		_ = s.Get()
	})

	if s.Subscribers() != 1 {
		t.Fatalf("expected 1 deduplicated subscriber, got %d", s.Subscribers())
	}

	s.Set(1)
	if l.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", l.getDirtyCount())
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	s := NewSignal(0)
	l := newTestListener()

	WithListener(l, func() {
		_ = s.Peek()
	})

	if s.Subscribers() != 0 {
		t.Errorf("Peek should not subscribe, got %d subscribers", s.Subscribers())
	}
}

func TestSignalUnchangedSetDoesNotNotify(t *testing.T) {
	s := NewSignal("a")
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	s.Set("a")
	if l.getDirtyCount() != 0 {
		t.Errorf("equal Set notified %d times", l.getDirtyCount())
	}
}

func TestSignalUpdateCounter(t *testing.T) {
	s := NewSignal(uint64(0))
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	for i := 0; i < 5; i++ {
		s.Update(func(n uint64) uint64 { return n + 1 })
	}

	if s.Peek() != 5 {
		t.Errorf("Peek() = %d, want 5", s.Peek())
	}
	if l.getDirtyCount() != 5 {
		t.Errorf("expected 5 notifications, got %d", l.getDirtyCount())
	}
}

func TestSignalCounterWraps(t *testing.T) {
	s := NewSignal(^uint64(0))
	s.Update(func(n uint64) uint64 { return n + 1 })
	if s.Peek() != 0 {
		t.Errorf("expected wrap to 0, got %d", s.Peek())
	}
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	s := NewSignal(point{1, 2}).WithEquals(func(a, b point) bool { return a.X == b.X })
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	s.Set(point{1, 99})
	if l.getDirtyCount() != 0 {
		t.Error("custom equality should suppress notification")
	}
	s.Set(point{2, 2})
	if l.getDirtyCount() != 1 {
		t.Error("custom equality should allow notification")
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	s := NewSignal(0)
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	s.Unsubscribe(l)
	s.Set(1)
	if l.getDirtyCount() != 0 {
		t.Errorf("unsubscribed listener notified %d times", l.getDirtyCount())
	}
}

func TestUntracked(t *testing.T) {
	s := NewSignal(0)
	l := newTestListener()

	WithListener(l, func() {
		Untracked(func() {
			_ = s.Get()
		})
	})

	if s.Subscribers() != 0 {
		t.Errorf("Untracked read subscribed %d listeners", s.Subscribers())
	}
}

func TestSignalConcurrentUpdates(t *testing.T) {
	s := NewSignal(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if s.Peek() != 50 {
		t.Errorf("Peek() = %d, want 50", s.Peek())
	}
}

func TestSignalPointerIdentity(t *testing.T) {
	type box struct{ n int }
	a, b := &box{1}, &box{1}

	s := NewSignal(a)
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	s.Set(a)
	if l.getDirtyCount() != 0 {
		t.Fatalf("same pointer notified %d times", l.getDirtyCount())
	}

	s.Set(b)
	if l.getDirtyCount() != 1 {
		t.Fatalf("equal-content pointer notified %d times, want 1", l.getDirtyCount())
	}
}
