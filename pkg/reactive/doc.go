// Package reactive provides the component runtime that livestore bindings
// plug into.
//
// Reading a Signal during component render subscribes the component to that
// signal's changes; writing it marks the component dirty so the host
// re-renders it.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Owner is a component scope. It owns hook slots, effects and cleanups, and
// disposes all of them when the component unmounts.
//
// # Hooks
//
// Hooks keep their identity across renders through the owner's hook slots,
// so they must be called in the same order on every render:
//
//	rev := UseSignal(uint64(0))  // created on first render, reused after
//
//	UseEffect(func() Cleanup {
//	    sub := subscribe(store)
//	    return sub.Close       // runs before the next run and on unmount
//	}, store, options)         // re-runs only when a dependency changes
//
// Effects never run during render. They are queued on the owner and run by
// RunPendingEffects once the render has been committed.
//
// # Batching
//
// Multiple signal updates can be batched to trigger a single notification:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})  // Single notification after all updates
//
// # Thread Safety
//
// All reactive primitives are safe to use from multiple goroutines. The
// tracking context is per-goroutine, so spawning goroutines requires explicit
// context propagation via WithOwner.
package reactive
