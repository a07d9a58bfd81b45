// Package host runs components on a single cooperative event loop.
//
// A Host owns a root reactive.Owner, a queue of tasks and the set of
// mounted components. Everything that touches component state runs as a
// task on the loop:
//
//  1. A task is dispatched (Dispatch is safe from any goroutine)
//  2. The loop runs it inside reactive.Batch, recovering panics
//  3. Pending effects are run
//  4. Dirty components are re-rendered
//  5. Steps 3 and 4 repeat until nothing is pending
//
// Host implements observable.Scheduler, so an observable created with
// observable.WithScheduler(h) delivers its change batches as host tasks.
// The loop is either driven by Run in its own goroutine, or stepped by
// hand with Drain, which is what tests and the watch command do.
//
//	h := host.New(nil)
//	ci := h.Mount(host.FuncComponent(func() string {
//	    v := livestore.UseStore(store, livestore.PathsFrom("user"))
//	    return v.String()
//	}))
//	go h.Run(ctx)
package host
