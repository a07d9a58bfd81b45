// Package errors provides structured, actionable error values for livestore.
//
// Every error carries a code (e.g., "E101") that maps to a registered
// template with a category, a short message, a longer explanation and a
// documentation URL. Callers add a suggestion or wrap the underlying cause:
//
//	err := errors.New("E101").
//	    Wrapf("got %T", raw).
//	    WithSuggestion("Pass a map, slice, array or struct")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Store value must be an object
//	//
//	//   A store wraps a map, slice, array or struct (or a pointer to one).
//	//
//	//   Hint: Pass a map, slice, array or struct
//	//
//	//   Learn more: https://vango.dev/docs/livestore/errors/E101
//
// # Categories
//
//   - runtime: misuse of the reactive runtime (hooks outside render, hook order)
//   - validation: invalid arguments; these match ErrInvalidArgument via errors.Is
//   - config: invalid configuration files or environment
//   - cli: invalid command input such as mutation scripts
package errors
