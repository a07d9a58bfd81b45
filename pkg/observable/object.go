package observable

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/livestore/internal/errors"
)

const tracerName = "github.com/vango-dev/livestore/pkg/observable"

// Option configures an observable created by From.
type Option func(*config)

type config struct {
	async     bool
	scheduler Scheduler
	logger    *slog.Logger
	tracer    trace.Tracer
	recorder  Recorder
}

// Async selects batched asynchronous delivery (true, the default) or
// immediate delivery after every mutation (false).
func Async(async bool) Option {
	return func(c *config) {
		c.async = async
	}
}

// WithScheduler sets where flush tasks run. Default: Goroutine.
func WithScheduler(s Scheduler) Option {
	return func(c *config) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer used for delivery spans.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// core is the state shared by an observable root and all its views.
type core struct {
	config

	// mu guards the fields below.
	mu sync.Mutex

	root      any
	subs      []*Subscription
	pending   []Change
	scheduled bool

	// version counts committed mutations.
	version uint64
}

// Object is a live, observable view of a tree node. The value returned by
// From is the root view; At returns nested views sharing the same state.
type Object struct {
	c      *core
	prefix Path
}

// From deep-copies raw into a new observable. raw must be a map, slice,
// array or struct, or a non-nil pointer to one; anything else fails with
// E101.
func From(raw any, opts ...Option) (*Object, error) {
	if !isObject(raw) {
		return nil, errors.New("E101").
			Wrapf("got %T", raw).
			WithSuggestion("Pass a map, slice, array or struct (or a pointer to one)")
	}

	cfg := config{
		async:     true,
		scheduler: Goroutine,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Object{c: &core{config: cfg, root: normalize(raw)}}, nil
}

// At returns a live view of the node at path (relative to o). The node does
// not need to exist yet; reads through the view see whatever is there when
// they run.
func (o *Object) At(path string) *Object {
	return &Object{c: o.c, prefix: o.resolve(path)}
}

// Path returns the view's path from the root.
func (o *Object) Path() Path {
	return append(Path(nil), o.prefix...)
}

// Root returns the root view.
func (o *Object) Root() *Object {
	return &Object{c: o.c}
}

func (o *Object) resolve(path string) Path {
	return o.prefix.join(ParsePath(path))
}

// Get returns a copy of the node at path and whether it exists.
func (o *Object) Get(path string) (any, bool) {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	node, ok := lookup(o.c.root, o.resolve(path))
	if !ok {
		return nil, false
	}
	return clone(node), true
}

// Has reports whether a node exists at path.
func (o *Object) Has(path string) bool {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	_, ok := lookup(o.c.root, o.resolve(path))
	return ok
}

// Len returns the number of entries of the map or array at path, or 0.
func (o *Object) Len(path string) int {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	node, _ := lookup(o.c.root, o.resolve(path))
	switch n := node.(type) {
	case map[string]any:
		return len(n)
	case []any:
		return len(n)
	default:
		return 0
	}
}

// Keys returns the sorted keys of the map at path, or the indices of the
// array at path.
func (o *Object) Keys(path string) []string {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	node, _ := lookup(o.c.root, o.resolve(path))
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case []any:
		keys := make([]string, len(n))
		for i := range n {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	default:
		return nil
	}
}

// Snapshot returns a deep copy of the view's node, or nil if it does not
// exist.
func (o *Object) Snapshot() any {
	v, _ := o.Get("")
	return v
}

// String returns the JSON encoding of the view's node.
func (o *Object) String() string {
	b, err := json.Marshal(o.Snapshot())
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

// MarshalJSON encodes the view's current node.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Snapshot())
}

// Set writes value at path. On a map it inserts or updates the key. On an
// array, an index below the length updates that element and an index equal
// to the length appends.
func (o *Object) Set(path string, value any) error {
	full := o.resolve(path)
	if len(full) == 0 {
		return errRootPath("Set")
	}
	v := normalize(value)
	key := full.Key()

	return o.mutate(func() ([]Change, error) {
		var change Change
		err := o.c.update(full[:len(full)-1], func(node any) (any, error) {
			switch n := node.(type) {
			case map[string]any:
				old, existed := n[key]
				n[key] = v
				if existed {
					change = Change{Type: Update, Path: full, Value: clone(v), OldValue: old}
				} else {
					change = Change{Type: Insert, Path: full, Value: clone(v)}
				}
				return n, nil

			case []any:
				i, err := strconv.Atoi(key)
				if err != nil || i < 0 || i > len(n) {
					return nil, errIndex(key, len(n))
				}
				if i == len(n) {
					change = Change{Type: Insert, Path: full, Value: clone(v)}
					return append(n, v), nil
				}
				old := n[i]
				n[i] = v
				change = Change{Type: Update, Path: full, Value: clone(v), OldValue: old}
				return n, nil

			default:
				return nil, errNotContainerAt(full[:len(full)-1], node)
			}
		})
		if err != nil {
			return nil, err
		}
		return []Change{change}, nil
	})
}

// Delete removes the map key or array element at path. Deleting a missing
// map key is a no-op.
func (o *Object) Delete(path string) error {
	full := o.resolve(path)
	if len(full) == 0 {
		return errRootPath("Delete")
	}
	key := full.Key()

	return o.mutate(func() ([]Change, error) {
		var changes []Change
		err := o.c.update(full[:len(full)-1], func(node any) (any, error) {
			switch n := node.(type) {
			case map[string]any:
				old, existed := n[key]
				if !existed {
					return n, nil
				}
				delete(n, key)
				changes = append(changes, Change{Type: Delete, Path: full, OldValue: old})
				return n, nil

			case []any:
				i, ok := index(key, len(n))
				if !ok {
					return nil, errIndex(key, len(n)-1)
				}
				old := n[i]
				changes = append(changes, Change{Type: Delete, Path: full, OldValue: old})
				return append(n[:i:i], n[i+1:]...), nil

			default:
				return nil, errNotContainerAt(full[:len(full)-1], node)
			}
		})
		return changes, err
	})
}

// mutate runs fn under the lock and queues or delivers the changes it
// returns.
func (o *Object) mutate(fn func() ([]Change, error)) error {
	c := o.c

	c.mu.Lock()
	changes, err := fn()
	if err != nil || len(changes) == 0 {
		c.mu.Unlock()
		return err
	}
	c.version++

	if !c.async {
		c.mu.Unlock()
		c.deliver(changes)
		return nil
	}

	c.pending = append(c.pending, changes...)
	schedule := !c.scheduled
	c.scheduled = true
	c.mu.Unlock()

	if schedule && !c.scheduler.Dispatch(c.flush) {
		c.mu.Lock()
		c.scheduled = false
		n := len(c.pending)
		c.mu.Unlock()
		c.logger.Warn("flush rejected by scheduler, changes stay queued", "pending", n)
	}
	return nil
}

// update replaces the container at path with fn's result. Caller holds mu.
func (c *core) update(path Path, fn func(any) (any, error)) error {
	root, err := replaceAt(c.root, path, fn)
	if err != nil {
		return err
	}
	c.root = root
	return nil
}
