// Package livestore binds observable stores to components.
//
// A Store owns one deeply observable value. Mutating it (through the
// *observable.Object returned by Value or by a binding hook) queues change
// records that are delivered in batches. UseStore connects those batches to
// a component: every delivered batch bumps a component-local revision
// counter, which marks the component dirty so the host re-renders it.
//
//	store, err := livestore.New(map[string]any{"a": 1},
//	    livestore.WithScheduler(h))
//
//	h.Mount(host.FuncComponent(func() string {
//	    v := livestore.UseStore(store, livestore.PathsFrom("a"))
//	    return v.String()
//	}))
//
//	h.Dispatch(func() { store.Value().Set("a", 2) })
//
// Options select what re-renders the component: All (the default),
// PathsFrom(path) for a subtree, Filtered for any observable.Filter, or
// Off to read the live value without subscribing.
//
// A Store has at most one active subscription. Observe replaces the
// previous one and Unobserve removes it, so a store is meant to be bound by
// one component at a time. Replacing a live subscription logs a warning.
package livestore
