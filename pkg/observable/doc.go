// Package observable wraps plain Go values into deeply observable objects.
//
// From deep-copies a map, slice, array or struct into a tree of
// map[string]any and []any and returns an *Object. All mutation goes through
// the Object's methods, which record Change values; observers registered
// with Observe receive those changes in batches.
//
//	obj, _ := observable.From(map[string]any{"user": map[string]any{"name": "ada"}})
//
//	sub, _ := observable.Observe(obj, func(changes []observable.Change) {
//	    for _, c := range changes {
//	        fmt.Println(c.Type, c.Path, c.Value)
//	    }
//	}, observable.PathsFrom("user"))
//	defer sub.Close()
//
//	obj.Set("user.name", "grace")   // update user.name
//	obj.Set("user.age", 36)         // insert user.age
//	// one batch with both changes is delivered after this turn
//
// # Delivery
//
// By default delivery is asynchronous: the first mutation after a flush
// dispatches a single flush task on the configured Scheduler, and every
// mutation made before that task runs joins the same batch. Async(false)
// delivers each mutation's changes immediately after it is applied.
//
// # Paths
//
// Paths are dot separated; array elements are addressed by decimal index
// ("items.0.title"). Keys that contain a dot cannot be addressed.
//
// # Views
//
// At returns a live view of a nested container. Mutations through a view
// are recorded with full paths; observers registered on a view receive
// only changes under it, with paths relative to it.
package observable
