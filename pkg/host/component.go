package host

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/livestore/pkg/reactive"
)

// Component is the interface for renderable components.
type Component interface {
	// Render returns the component's output. Hooks called during Render
	// belong to the component instance.
	Render() string
}

// FuncComponent wraps a render function as a Component.
type FuncComponent func() string

// Render calls the wrapped function.
func (f FuncComponent) Render() string {
	return f()
}

// ComponentInstance is a mounted component with its reactive state.
type ComponentInstance struct {
	// InstanceID is the unique instance identifier.
	InstanceID string

	// Component is the component being rendered.
	Component Component

	// Owner holds the component's hooks, effects and cleanups.
	Owner *reactive.Owner

	dirty    atomic.Bool
	disposed atomic.Bool
	renders  atomic.Uint64

	host *Host

	// mu guards output and err.
	mu     sync.Mutex
	output string
	err    error
}

var _ reactive.Listener = (*ComponentInstance)(nil)

var componentIDCounter atomic.Uint64

func generateComponentID() string {
	return fmt.Sprintf("c%d", componentIDCounter.Add(1))
}

func newComponentInstance(component Component, h *Host) *ComponentInstance {
	var parent *reactive.Owner
	if h != nil {
		parent = h.owner
	}
	return &ComponentInstance{
		InstanceID: generateComponentID(),
		Component:  component,
		Owner:      reactive.NewOwner(parent),
		host:       h,
	}
}

// Render renders the component with its owner and listener installed, so
// hooks bind to this instance and signal reads subscribe it. A panic during
// render is recovered and kept as Err; the previous output is retained.
func (c *ComponentInstance) Render() string {
	if c.disposed.Load() || c.Component == nil {
		return c.Output()
	}

	start := time.Now()
	var out string
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				if c.host != nil {
					c.host.logger.Error("render panic",
						"component", c.InstanceID,
						"panic", r,
						"stack", string(debug.Stack()))
				}
			}
		}()

		reactive.WithOwner(c.Owner, func() {
			c.Owner.StartRender()
			defer c.Owner.EndRender()

			reactive.WithListener(c, func() {
				out = c.Component.Render()
			})
		})
		return nil
	}()

	c.renders.Add(1)
	c.mu.Lock()
	c.err = err
	if err == nil {
		c.output = out
	}
	output := c.output
	c.mu.Unlock()

	if c.host != nil {
		c.host.recorder.ComponentRendered(time.Since(start))
	}
	return output
}

// MarkDirty marks the component as needing re-render. Implements
// reactive.Listener.
func (c *ComponentInstance) MarkDirty() {
	if c.disposed.Load() {
		return
	}
	if c.dirty.CompareAndSwap(false, true) && c.host != nil {
		c.host.scheduleRender()
	}
}

// ID implements reactive.Listener.
func (c *ComponentInstance) ID() uint64 {
	return c.Owner.ID()
}

// IsDirty returns whether the component needs re-rendering.
func (c *ComponentInstance) IsDirty() bool {
	return c.dirty.Load()
}

// ClearDirty clears the dirty flag.
func (c *ComponentInstance) ClearDirty() {
	c.dirty.Store(false)
}

// Output returns the last successful render output.
func (c *ComponentInstance) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Err returns the error from the last render, or nil.
func (c *ComponentInstance) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Renders returns how many times the component has rendered.
func (c *ComponentInstance) Renders() uint64 {
	return c.renders.Load()
}

// Disposed reports whether the instance has been unmounted.
func (c *ComponentInstance) Disposed() bool {
	return c.disposed.Load()
}

// Dispose disposes the instance's owner, running effect cleanups and
// OnUnmount callbacks. It is idempotent.
func (c *ComponentInstance) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	c.Owner.Dispose()
	c.dirty.Store(false)
}

// panicError turns a recovered value into an error, keeping errors as-is.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
