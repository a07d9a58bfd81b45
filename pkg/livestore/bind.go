package livestore

import (
	"github.com/vango-dev/livestore/pkg/observable"
	"github.com/vango-dev/livestore/pkg/reactive"
)

// Bind connects s to the component currently rendering and returns the
// live value. It must be called during render, in the same order on every
// render, like any hook.
//
// The component keeps a revision counter that starts at zero. Whenever the
// pair (s, opts) differs from the previous render's, the previous
// subscription is released and, unless opts is Off, s.Observe registers a
// callback that bumps the revision once per delivered batch. The bump marks
// the component dirty. Unmounting releases the subscription.
//
// Bind fails with E102 for a nil or zero Store and with E103 for invalid
// options; both match ErrInvalidArgument. Called outside a render, it
// panics with E001 from the reactive runtime.
func Bind(s *Store, opts Options) (*observable.Object, error) {
	v, _, err := bind(s, opts)
	return v, err
}

// UseStore is Bind for render functions: it panics with Bind's error. With
// no options it subscribes to every change; only the first option is used.
func UseStore(s *Store, opts ...Options) *observable.Object {
	v, _, err := bind(s, optionsOf(opts))
	if err != nil {
		panic(err)
	}
	return v
}

// UseStoreRevision is UseStore that also returns the current revision.
func UseStoreRevision(s *Store, opts ...Options) (*observable.Object, uint64) {
	v, rev, err := bind(s, optionsOf(opts))
	if err != nil {
		panic(err)
	}
	return v, rev
}

func bind(s *Store, opts Options) (*observable.Object, uint64, error) {
	revision := reactive.UseSignal(uint64(0))

	if err := validStore(s); err != nil {
		return nil, 0, err
	}
	if err := opts.Validate(); err != nil {
		return nil, 0, err
	}

	// Reading subscribes the rendering component to its own revision.
	rev := revision.Get()

	reactive.UseEffect(func() reactive.Cleanup {
		if opts.Disabled() {
			return nil
		}

		bump := func([]observable.Change) {
			revision.Update(func(n uint64) uint64 { return n + 1 })
			s.recorder.RevisionBumped()
		}
		if err := s.Observe(bump, opts); err != nil {
			s.logger.Error("store subscription failed", "options", opts.String(), "error", err)
			return nil
		}
		s.logger.Debug("store bound", "options", opts.String())
		return s.Unobserve
	}, s, opts)

	return s.value, rev, nil
}
