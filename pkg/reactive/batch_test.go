package reactive

import "testing"

func TestBatchSingleNotification(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	c := NewSignal(0)

	listener := newTestListener()

	WithListener(listener, func() {
		_ = a.Get()
		_ = b.Get()
		_ = c.Get()
	})

	Batch(func() {
		a.Set(1)
		b.Set(2)
		c.Set(3)
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification (batched), got %d", listener.getDirtyCount())
	}
}

func TestBatchDeduplication(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	Batch(func() {
		for i := 1; i <= 5; i++ {
			count.Set(i)
		}
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification (deduplicated), got %d", listener.getDirtyCount())
	}
	if count.Peek() != 5 {
		t.Errorf("expected final value 5, got %d", count.Peek())
	}
}

func TestBatchNested(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()
	WithListener(listener, func() { _ = count.Get() })

	Batch(func() {
		count.Set(1)
		Batch(func() {
			count.Set(2)
		})
		if listener.getDirtyCount() != 0 {
			t.Error("inner batch should not flush notifications")
		}
		count.Set(3)
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification after outer batch, got %d", listener.getDirtyCount())
	}
}

func TestBatchFlushesOnPanic(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()
	WithListener(listener, func() { _ = count.Get() })

	func() {
		defer func() { _ = recover() }()
		Batch(func() {
			count.Set(1)
			panic("boom")
		})
	}()

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected pending notification to flush, got %d", listener.getDirtyCount())
	}
	if batching() {
		t.Error("batch left open after panic")
	}
	if peekScope() != nil {
		t.Error("goroutine scope not released")
	}
}

func TestScopeReleasedAfterNestedCalls(t *testing.T) {
	owner := NewOwner(nil)
	listener := newTestListener()

	WithOwner(owner, func() {
		WithListener(listener, func() {
			Batch(func() {
				if CurrentOwner() != owner {
					t.Error("owner lost inside batch")
				}
				if currentListener() != listener {
					t.Error("listener lost inside batch")
				}
			})
		})
		if currentListener() != nil {
			t.Error("listener not restored")
		}
	})

	if peekScope() != nil {
		t.Error("goroutine scope not released")
	}
}

func TestGoroutineIDsDiffer(t *testing.T) {
	self := goroutineID()
	if self == 0 {
		t.Fatal("goroutine ID not parsed")
	}

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	if id := <-other; id == self || id == 0 {
		t.Errorf("goroutine IDs: self %d, other %d", self, id)
	}
}
