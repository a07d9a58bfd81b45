package reactive

// UseSignal returns a signal that keeps its identity across renders of the
// current component. initial is only used on the first render.
// Outside a render it returns a fresh, unowned signal.
func UseSignal[T any](initial T) *Signal[T] {
	owner := currentOwner()
	if owner == nil {
		return NewSignal(initial)
	}

	owner.TrackHook(HookSignal)

	if slot := owner.UseHookSlot(); slot != nil {
		return slot.(*Signal[T])
	}

	s := NewSignal(initial)
	owner.SetHookSlot(s)
	return s
}
