package host

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/livestore/pkg/reactive"
)

// Host is a single-threaded cooperative event loop for components.
type Host struct {
	// ID is the unique host identifier.
	ID string

	config   *Config
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder

	// owner is the root owner; every mounted component owner is its child.
	owner *reactive.Owner

	tasks    chan func()
	renderCh chan struct{}
	done     chan struct{}
	closed   atomic.Bool

	// mu guards components.
	mu         sync.Mutex
	components []*ComponentInstance

	taskCount   atomic.Uint64
	renderCount atomic.Uint64
}

// New creates a Host. A nil config uses DefaultConfig.
func New(config *Config) *Host {
	config = config.withDefaults()
	id := uuid.NewString()

	return &Host{
		ID:       id,
		config:   config,
		logger:   config.Logger.With("host", id),
		tracer:   config.Tracer,
		recorder: config.Recorder,
		owner:    reactive.NewOwner(nil),
		tasks:    make(chan func(), config.MaxQueue),
		renderCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Dispatch queues fn to run on the loop and reports whether it was queued.
// It is safe to call from any goroutine, including from a running task.
// A full queue or a closed host rejects fn. Host implements
// observable.Scheduler through Dispatch.
func (h *Host) Dispatch(fn func()) bool {
	if fn == nil || h.closed.Load() {
		return false
	}
	select {
	case h.tasks <- fn:
		return true
	case <-h.done:
		return false
	default:
		h.recorder.TaskDropped()
		h.logger.Warn("task queue full, discarding task", "capacity", cap(h.tasks))
		return false
	}
}

// Run processes tasks until ctx is done or the host is closed. It returns
// ctx.Err() when the context ends the loop and nil after Close.
func (h *Host) Run(ctx context.Context) error {
	h.logger.Debug("host loop started")
	defer h.logger.Debug("host loop stopped")

	for {
		select {
		case fn := <-h.tasks:
			h.execute(fn)

		case <-h.renderCh:
			h.settle()

		case <-ctx.Done():
			return ctx.Err()

		case <-h.done:
			return nil
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is empty,
// including tasks queued by the tasks it runs. It returns how many ran.
func (h *Host) Drain() int {
	n := 0
	for {
		select {
		case fn := <-h.tasks:
			h.execute(fn)
			n++
		case <-h.renderCh:
			h.settle()
		default:
			return n
		}
	}
}

// Pending returns the number of queued tasks.
func (h *Host) Pending() int {
	return len(h.tasks)
}

// Mount creates an instance of component, renders it and runs its effects.
// Call it from the loop goroutine (inside a task), or before Run starts.
func (h *Host) Mount(component Component) *ComponentInstance {
	ci := newComponentInstance(component, h)

	h.mu.Lock()
	h.components = append(h.components, ci)
	h.mu.Unlock()

	ci.Render()
	h.settle()

	h.logger.Debug("component mounted", "component", ci.InstanceID)
	return ci
}

// Unmount disposes ci: its effect cleanups and OnUnmount callbacks run and
// it is never rendered again.
func (h *Host) Unmount(ci *ComponentInstance) {
	if ci == nil {
		return
	}

	h.mu.Lock()
	for i, c := range h.components {
		if c == ci {
			h.components = append(h.components[:i:i], h.components[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	ci.Dispose()
	h.logger.Debug("component unmounted", "component", ci.InstanceID)
}

// Components returns the mounted components in mount order.
func (h *Host) Components() []*ComponentInstance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*ComponentInstance(nil), h.components...)
}

// Owner returns the root owner.
func (h *Host) Owner() *reactive.Owner {
	return h.owner
}

// Close stops the loop and disposes every mounted component. Queued tasks
// are discarded.
func (h *Host) Close() {
	if h.closed.Swap(true) {
		return
	}
	close(h.done)

	h.mu.Lock()
	components := h.components
	h.components = nil
	h.mu.Unlock()

	for i := len(components) - 1; i >= 0; i-- {
		components[i].Dispose()
	}
	h.owner.Dispose()

	h.logger.Info("host closed",
		"tasks", h.taskCount.Load(),
		"renders", h.renderCount.Load())
}

// IsClosed returns whether the host is closed.
func (h *Host) IsClosed() bool {
	return h.closed.Load()
}

// Done returns a channel that is closed when the host closes.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Stats is a snapshot of loop counters.
type Stats struct {
	Tasks      uint64
	Renders    uint64
	Components int
	Pending    int
}

// Stats returns current loop counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	n := len(h.components)
	h.mu.Unlock()

	return Stats{
		Tasks:      h.taskCount.Load(),
		Renders:    h.renderCount.Load(),
		Components: n,
		Pending:    len(h.tasks),
	}
}

// execute runs one task with panic recovery, then settles effects and
// renders.
func (h *Host) execute(fn func()) {
	_, span := h.tracer.Start(context.Background(), "host.task",
		trace.WithAttributes(attribute.String("host.id", h.ID)))
	defer span.End()

	start := time.Now()
	panicked := h.safeExecute(fn, span)
	h.taskCount.Add(1)

	h.settle()
	h.recorder.TaskCompleted(time.Since(start), panicked)
}

func (h *Host) safeExecute(fn func(), span trace.Span) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err := panicError(r)
			h.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	reactive.Batch(fn)
	return false
}

// settle alternates running pending effects and re-rendering dirty
// components until neither is left.
func (h *Host) settle() {
	for pass := 0; ; pass++ {
		if pass == h.config.MaxSettlePasses {
			h.logger.Error("render loop detected, giving up",
				"passes", pass)
			return
		}

		h.owner.RunPendingEffects()
		if !h.renderDirty() && !h.owner.HasPendingEffects() {
			return
		}
	}
}

// renderDirty re-renders every dirty component in mount order. It reports
// whether anything rendered.
func (h *Host) renderDirty() bool {
	var dirty []*ComponentInstance
	for _, ci := range h.Components() {
		if ci.IsDirty() {
			ci.ClearDirty()
			dirty = append(dirty, ci)
		}
	}

	for _, ci := range dirty {
		reactive.Batch(func() {
			ci.Render()
		})
		h.renderCount.Add(1)
	}
	return len(dirty) > 0
}

// scheduleRender wakes the loop for a render pass.
func (h *Host) scheduleRender() {
	select {
	case h.renderCh <- struct{}{}:
	default:
	}
}
