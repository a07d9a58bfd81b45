package reactive

// Listener is anything that can be notified when a dependency changes.
// Components implement it to schedule a re-render.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to release what they acquired.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()
