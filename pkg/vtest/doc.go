// Package vtest provides testing helpers for components bound to stores.
//
// A Harness owns a host that is stepped by hand, so tests decide exactly
// when change batches are delivered and components re-render.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    store := h.Store(map[string]any{"count": 0})
//
//	    p := h.Mount(func() string {
//	        return livestore.UseStore(store).String()
//	    })
//
//	    h.Turn(func() { store.Value().Set("count", 1) })
//
//	    vtest.ExpectRenders(t, p, 2)
//	    vtest.ExpectOutput(t, p, `{"count":1}`)
//	}
//
// # Turns
//
// Turn runs a function as one host task and then drains the queue, which
// delivers the batch the function's mutations produced and re-renders
// whatever it dirtied. Mutations made outside Turn are delivered by the
// next Turn or Settle.
//
// # Probes
//
// Mount returns a Probe that records every output its component rendered,
// in order:
//
//	vtest.ExpectHistory(t, p, `{"count":0}`, `{"count":1}`)
package vtest
