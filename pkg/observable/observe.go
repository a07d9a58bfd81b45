package observable

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/livestore/internal/errors"
)

// Callback receives one batch of changes. Paths are relative to the object
// passed to Observe.
type Callback func(changes []Change)

// Subscription is a registered observer.
type Subscription struct {
	id     uuid.UUID
	c      *core
	prefix Path
	filter Filter
	where  *vm.Program
	cb     Callback
	closed atomic.Bool
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Filter returns the filter the subscription was registered with.
func (s *Subscription) Filter() Filter {
	return s.filter
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Close unregisters the subscription. Batches already queued are not
// delivered to it. Close is idempotent.
func (s *Subscription) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}

	c := s.c
	c.mu.Lock()
	for i, sub := range c.subs {
		if sub == s {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.recorder.SubscriptionClosed()
	c.logger.Debug("observer removed", "subscription", s.id, "path", s.prefix.String())
}

// Observe registers cb for changes at or below o that pass f. It fails with
// E103 when cb is nil or f is invalid.
func Observe(o *Object, cb Callback, f Filter) (*Subscription, error) {
	if o == nil || o.c == nil {
		return nil, errors.New("E102").Wrapf("Observe called on a nil object")
	}
	if cb == nil {
		return nil, errors.New("E103").Wrapf("callback must not be nil")
	}
	where, err := f.compile()
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		id:     uuid.New(),
		c:      o.c,
		prefix: o.Path(),
		filter: f,
		where:  where,
		cb:     cb,
	}

	o.c.mu.Lock()
	o.c.subs = append(o.c.subs, s)
	o.c.mu.Unlock()

	o.c.recorder.SubscriptionOpened()
	o.c.logger.Debug("observer added",
		"subscription", s.id,
		"path", s.prefix.String(),
		"filter", f.String())
	return s, nil
}

// Unobserve closes the given subscriptions. With none given it closes every
// subscription registered on o's path.
func Unobserve(o *Object, subs ...*Subscription) {
	if len(subs) == 0 {
		o.c.mu.Lock()
		prefix := o.prefix.String()
		for _, s := range o.c.subs {
			if s.prefix.String() == prefix {
				subs = append(subs, s)
			}
		}
		o.c.mu.Unlock()
	}
	for _, s := range subs {
		if s != nil && s.c == o.c {
			s.Close()
		}
	}
}

// Observers returns the number of open subscriptions on o's tree.
func Observers(o *Object) int {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	return len(o.c.subs)
}

// Flush delivers queued changes now instead of waiting for the scheduled
// flush. It is a no-op when nothing is queued.
func Flush(o *Object) {
	o.c.flush()
}

// flush delivers every change queued since the last flush as one batch.
func (c *core) flush() {
	c.mu.Lock()
	changes := c.pending
	c.pending = nil
	c.scheduled = false
	c.mu.Unlock()

	if len(changes) > 0 {
		c.deliver(changes)
	}
}

// deliver hands changes to every open subscription they match.
func (c *core) deliver(changes []Change) {
	c.mu.Lock()
	subs := append([]*Subscription(nil), c.subs...)
	c.mu.Unlock()

	_, span := c.tracer.Start(context.Background(), "observable.deliver",
		trace.WithAttributes(
			attribute.Int("observable.changes", len(changes)),
			attribute.Int("observable.subscriptions", len(subs)),
		),
	)
	defer span.End()

	start := time.Now()
	delivered := 0
	for _, s := range subs {
		if s.Closed() {
			continue
		}
		matched := s.match(changes)
		if len(matched) == 0 {
			continue
		}
		delivered++
		s.cb(matched)
	}

	span.SetAttributes(attribute.Int("observable.delivered", delivered))
	c.recorder.BatchDelivered(len(changes), delivered, time.Since(start))
}

// match returns the changes s should see, rebased onto its prefix.
func (s *Subscription) match(changes []Change) []Change {
	var out []Change
	for _, ch := range changes {
		if !ch.Path.HasPrefix(s.prefix) {
			continue
		}
		rel := ch.relativeTo(s.prefix)
		if !s.filter.matchesPath(rel) {
			continue
		}
		if s.where != nil {
			ok, err := evalWhere(s.where, rel)
			if err != nil {
				s.c.logger.Warn("observer filter failed",
					"subscription", s.id,
					"filter", s.filter.String(),
					slog.Any("error", err))
				continue
			}
			if !ok {
				continue
			}
		}
		out = append(out, rel)
	}
	return out
}
