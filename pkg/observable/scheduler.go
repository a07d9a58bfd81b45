package observable

// Scheduler runs flush tasks. The host event loop implements it, so batches
// are delivered on the same cooperative loop that applies mutations.
//
// Dispatch reports whether fn was accepted. A rejected flush leaves its
// changes queued; the next mutation or an explicit Flush delivers them.
type Scheduler interface {
	Dispatch(fn func()) bool
}

// SchedulerFunc adapts a function that always accepts to Scheduler.
type SchedulerFunc func(fn func())

// Dispatch calls f(fn) and reports true.
func (f SchedulerFunc) Dispatch(fn func()) bool {
	f(fn)
	return true
}

// Goroutine runs every flush on a new goroutine. It is the default when no
// scheduler is configured.
var Goroutine Scheduler = SchedulerFunc(func(fn func()) { go fn() })
