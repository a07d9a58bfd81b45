package reactive

import (
	"reflect"
	"sync/atomic"

	"github.com/vango-dev/livestore/internal/errors"
)

// Effect is a dependency-keyed side effect owned by a component.
//
// An effect runs after the render that created it, and again after any
// render whose dependency list differs from the previous one. Before each
// re-run, and when the owner is disposed, the Cleanup returned by the
// previous run is called. Effect bodies are untracked: signal reads inside
// them never subscribe anything.
type Effect struct {
	id uint64

	// fn is the effect body from the most recent render.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// deps are the dependencies the effect was last scheduled with.
	deps []any

	// owner is the Owner that owns this effect.
	owner *Owner

	// pending indicates the effect is scheduled for a run.
	pending atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool

	// runs counts completed runs.
	runs atomic.Uint64
}

// MarkDirty schedules the effect to run on the owner's next
// RunPendingEffects. Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// CAS so a burst of changes schedules a single run
	if e.pending.CompareAndSwap(false, true) {
		if e.owner != nil {
			e.owner.scheduleEffect(e)
		}
	}
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Runs returns how many times the effect body has run.
func (e *Effect) Runs() uint64 {
	return e.runs.Load()
}

// run executes the cleanup of the previous run, then the effect body.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)

	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}

	fn := e.fn
	Untracked(func() {
		e.cleanup = fn()
	})
	e.runs.Add(1)
}

// dispose runs the last cleanup and stops future runs.
func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}
}

// UseEffect registers fn to run after the current render commits, and again
// after every later render in which deps differ from the previous render's.
// Calling it with no deps runs fn once, after the first render.
//
// Dependencies compare with == when their type is comparable (so pointers
// compare by identity and plain structs by value) and with
// reflect.DeepEqual otherwise.
//
//	UseEffect(func() Cleanup {
//	    store.Observe(bump, opts)
//	    return store.Unobserve
//	}, store, opts)
//
// UseEffect panics with E001 when no owner is active.
func UseEffect(fn func() Cleanup, deps ...any) *Effect {
	owner := currentOwner()
	if owner == nil {
		panic(errors.New("E001").Wrapf("UseEffect"))
	}

	owner.TrackHook(HookEffect)

	if slot := owner.UseHookSlot(); slot != nil {
		e := slot.(*Effect)
		if depsEqual(e.deps, deps) {
			return e
		}
		e.fn = fn
		e.deps = cloneDeps(deps)
		e.MarkDirty()
		return e
	}

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		deps:  cloneDeps(deps),
		owner: owner,
	}
	owner.SetHookSlot(e)
	owner.registerEffect(e)
	e.MarkDirty()

	return e
}

// OnUnmount registers fn to run when the current owner is disposed.
func OnUnmount(fn func()) {
	if owner := currentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

func cloneDeps(deps []any) []any {
	if len(deps) == 0 {
		return nil
	}
	out := make([]any, len(deps))
	copy(out, deps)
	return out
}

func depsEqual(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !sameDep(prev[i], next[i]) {
			return false
		}
	}
	return true
}

func sameDep(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
