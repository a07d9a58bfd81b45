package livestore

import "github.com/vango-dev/livestore/pkg/observable"

// Options selects which changes a binding subscribes to. The zero value
// subscribes to every change. Options are comparable, so they can key an
// effect's dependencies.
type Options struct {
	off    bool
	filter observable.Filter
}

// All subscribes to every change.
func All() Options {
	return Options{}
}

// Off disables observation. Bindings still return the live value.
func Off() Options {
	return Options{off: true}
}

// PathsFrom subscribes to changes at path or below it. It is the shorthand
// for Filtered(observable.PathsFrom(path)).
func PathsFrom(path string) Options {
	return Options{filter: observable.PathsFrom(path)}
}

// Filtered subscribes with an arbitrary observable filter.
func Filtered(f observable.Filter) Options {
	return Options{filter: f}
}

// Disabled reports whether o is Off.
func (o Options) Disabled() bool {
	return o.off
}

// Filter returns the observable filter o subscribes with.
func (o Options) Filter() observable.Filter {
	return o.filter
}

// Validate checks the filter. Off is always valid.
func (o Options) Validate() error {
	if o.off {
		return nil
	}
	return o.filter.Validate()
}

func (o Options) String() string {
	if o.off {
		return "off"
	}
	return o.filter.String()
}

// optionsOf folds variadic options into one; none means All.
func optionsOf(opts []Options) Options {
	if len(opts) == 0 {
		return All()
	}
	return opts[0]
}
