package livestore

import (
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/pkg/observable"
)

// ErrInvalidArgument is matched by construction and binding misuse errors.
var ErrInvalidArgument = errors.ErrInvalidArgument

// Option configures a Store.
type Option func(*settings)

type settings struct {
	observable []observable.Option
	logger     *slog.Logger
	recorder   Recorder
}

// WithScheduler sets where change batches are delivered, typically a
// *host.Host.
func WithScheduler(s observable.Scheduler) Option {
	return WithObservableOptions(observable.WithScheduler(s))
}

// WithLogger sets the store's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
			s.observable = append(s.observable, observable.WithLogger(l))
		}
	}
}

// WithTracer sets the tracer used for delivery spans.
func WithTracer(t trace.Tracer) Option {
	return WithObservableOptions(observable.WithTracer(t))
}

// WithRecorder sets the metrics recorder for the store and its observable.
func WithRecorder(r Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
			s.observable = append(s.observable, observable.WithRecorder(r))
		}
	}
}

// WithObservableOptions passes options through to observable.From.
// Async(false) is overridden: stores always deliver in batches.
func WithObservableOptions(opts ...observable.Option) Option {
	return func(s *settings) {
		s.observable = append(s.observable, opts...)
	}
}

// Store owns a deeply observable value and its single subscription.
type Store struct {
	value    *observable.Object
	logger   *slog.Logger
	recorder Recorder

	// mu guards sub.
	mu  sync.Mutex
	sub *observable.Subscription
}

// New wraps raw in a new Store. raw must be a map, slice, array or struct
// (or a pointer to one); anything else fails with E101, which matches
// ErrInvalidArgument. The store never replaces its value, so the object
// returned by Value keeps its identity for the store's lifetime.
func New(raw any, opts ...Option) (*Store, error) {
	cfg := settings{logger: slog.Default(), recorder: nopRecorder{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	value, err := observable.From(raw, append(cfg.observable, observable.Async(true))...)
	if err != nil {
		return nil, err
	}

	return &Store{
		value:    value,
		logger:   cfg.logger,
		recorder: cfg.recorder,
	}, nil
}

// Value returns the live wrapped value.
func (s *Store) Value() *observable.Object {
	return s.value
}

// Observe registers cb with opts, replacing any active subscription. Off
// registers nothing. Errors from the observable engine are returned
// unchanged.
func (s *Store) Observe(cb observable.Callback, opts Options) error {
	if err := validStore(s); err != nil {
		return err
	}
	if opts.Disabled() {
		return nil
	}

	sub, err := observable.Observe(s.value, cb, opts.Filter())
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.sub
	s.sub = sub
	s.mu.Unlock()

	if prev != nil {
		s.logger.Warn("store subscription replaced, previous observer stops receiving changes",
			"previous", prev.ID(),
			"subscription", sub.ID(),
			"filter", opts.String())
		prev.Close()
	}
	return nil
}

// Unobserve removes the active subscription. It is a no-op when there is
// none.
func (s *Store) Unobserve() {
	if s == nil {
		return
	}

	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	sub.Close()
}

// Observed reports whether the store has an active subscription.
func (s *Store) Observed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

// Snapshot returns a deep copy of the current value.
func (s *Store) Snapshot() any {
	return s.value.Snapshot()
}

// String returns the JSON encoding of the current value.
func (s *Store) String() string {
	return s.value.String()
}

func validStore(s *Store) error {
	if s == nil || s.value == nil {
		return errors.New("E102").
			Wrapf("got %T", s).
			WithSuggestion("Create stores with livestore.New")
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) SubscriptionOpened()                    {}
func (nopRecorder) SubscriptionClosed()                    {}
func (nopRecorder) BatchDelivered(int, int, time.Duration) {}
func (nopRecorder) RevisionBumped()                        {}
