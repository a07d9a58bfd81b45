package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/livestore/internal/errors"
)

// HookType identifies the type of hook call for order validation.
type HookType uint8

const (
	HookSignal HookType = iota + 1
	HookEffect
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookSignal:
		return "Signal"
	case HookEffect:
		return "Effect"
	default:
		return "Unknown"
	}
}

// Owner is the scope of one mounted component: its hook slots, the effects
// created by its hooks and the cleanups registered on it. A host keeps a
// root Owner and gives every component a child of it, so settling or
// disposing the root reaches the whole tree.
type Owner struct {
	id     uint64
	parent *Owner

	// mu guards the lists below. Hook slots and order tracking are only
	// touched during render on the loop goroutine.
	mu       sync.Mutex
	children []*Owner
	effects  []*Effect
	cleanups []func()
	pending  []*Effect

	disposed atomic.Bool

	// Debug-mode hook order tracking.
	hookOrder   []HookType
	hookIndex   int
	renderCount int

	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates an Owner. A non-nil parent adopts it.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, o)
		parent.mu.Unlock()
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has run.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) removeChild(child *Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Owner) childList() []*Owner {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Owner(nil), o.children...)
}

// registerEffect ties e's lifetime to o.
func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.effects = append(o.effects, e)
	o.mu.Unlock()
}

// OnCleanup registers fn to run when o is disposed. On a disposed Owner fn
// runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}
	o.mu.Lock()
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.pending = append(o.pending, e)
	o.mu.Unlock()
}

// RunPendingEffects runs the scheduled effects of o, then those of its
// children. The host calls it after every task and every render pass.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}

	o.mu.Lock()
	effects := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, e := range effects {
		if e.pending.Load() {
			e.run()
		}
	}
	for _, child := range o.childList() {
		child.RunPendingEffects()
	}
}

// HasPendingEffects reports whether o or any descendant has scheduled
// effects.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}

	o.mu.Lock()
	n := len(o.pending)
	o.mu.Unlock()
	if n > 0 {
		return true
	}

	for _, child := range o.childList() {
		if child.HasPendingEffects() {
			return true
		}
	}
	return false
}

// Dispose detaches o from its parent and tears it down: children first,
// newest first, then effect cleanups, then OnCleanup functions in reverse
// registration order. It is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}
	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.mu.Lock()
	children, effects, cleanups := o.children, o.effects, o.cleanups
	o.children, o.effects, o.cleanups, o.pending = nil, nil, nil, nil
	o.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for _, e := range effects {
		e.dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// =============================================================================
// Render phase and dev-mode hook order validation
// =============================================================================

// StartRender is called at the beginning of a component render.
// It resets the hook slot index, and in debug mode the order index.
func (o *Owner) StartRender() {
	o.hookSlotIdx = 0

	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender is called at the end of a component render.
// In debug mode, it validates that all expected hooks were called.
func (o *Owner) EndRender() {
	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(errors.New("E002").Wrapf("expected %d hooks, got %d", len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call during render for order validation.
// Violations in debug mode panic with E002.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}

	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, ht)
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			panic(errors.New("E002").Wrapf("extra %s hook at index %d", ht, o.hookIndex))
		}
		if expected := o.hookOrder[o.hookIndex]; expected != ht {
			panic(errors.New("E002").Wrap(fmt.Errorf("at index %d: expected %s, got %s", o.hookIndex, expected, ht)))
		}
	}
	o.hookIndex++
}

// UseHookSlot returns the stored value for the current hook slot, or nil on
// the first render, in which case the caller creates the value and stores it
// with SetHookSlot.
//
//	if slot := owner.UseHookSlot(); slot != nil {
//	    return slot.(*T)
//	}
//	instance := &T{}
//	owner.SetHookSlot(instance)
//	return instance
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores a value in the current hook slot.
// Must be called after UseHookSlot returns nil.
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}
