package observable

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vango-dev/livestore/internal/errors"
)

type filterMode uint8

const (
	modeAll filterMode = iota
	modePath
	modePathsOf
	modePathsFrom
)

// Filter selects which changes an observer receives. Filters are
// comparable values; build them with All, ExactPath, PathsOf or PathsFrom and
// optionally narrow them with Where.
type Filter struct {
	mode  filterMode
	path  string
	where string
}

// All accepts every change.
func All() Filter {
	return Filter{}
}

// ExactPath accepts changes whose path is exactly p. p must not be empty.
func ExactPath(p string) Filter {
	return Filter{mode: modePath, path: p}
}

// PathsOf accepts changes to direct children of p. "" selects the direct
// children of the observed value.
func PathsOf(p string) Filter {
	return Filter{mode: modePathsOf, path: p}
}

// PathsFrom accepts changes at p or anywhere below it. p must not be empty.
func PathsFrom(p string) Filter {
	return Filter{mode: modePathsFrom, path: p}
}

// Where narrows f with an expr-lang boolean expression evaluated per change.
// The expression sees:
//
//	type      "insert", "update", "delete", "reverse" or "shuffle"
//	path      dotted path relative to the observed object
//	key       last path segment
//	depth     number of path segments
//	value     new value (insert, update)
//	oldValue  previous value (update, delete)
//
// Example: PathsFrom("cart").Where(`type == "insert" && depth == 2`)
func (f Filter) Where(expression string) Filter {
	f.where = expression
	return f
}

// String describes the filter for logs.
func (f Filter) String() string {
	var s string
	switch f.mode {
	case modePath:
		s = fmt.Sprintf("path(%s)", f.path)
	case modePathsOf:
		s = fmt.Sprintf("pathsOf(%s)", f.path)
	case modePathsFrom:
		s = fmt.Sprintf("pathsFrom(%s)", f.path)
	default:
		s = "all"
	}
	if f.where != "" {
		s += " where " + f.where
	}
	return s
}

// Validate checks the filter without registering anything.
func (f Filter) Validate() error {
	_, err := f.compile()
	return err
}

// compile validates f and compiles its Where expression, if any.
func (f Filter) compile() (*vm.Program, error) {
	switch f.mode {
	case modePath:
		if len(ParsePath(f.path)) == 0 {
			return nil, errors.New("E103").Wrapf(`"path" option must be a non-empty path`)
		}
	case modePathsFrom:
		if len(ParsePath(f.path)) == 0 {
			return nil, errors.New("E103").Wrapf(`"pathsFrom" option must be a non-empty path`)
		}
	}

	if f.where == "" {
		return nil, nil
	}
	program, err := expr.Compile(f.where, expr.Env(changeEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.New("E103").Wrap(err)
	}
	return program, nil
}

// matchesPath reports whether a change, with its path relative to the
// observed object, passes the path part of the filter. PathsOf also takes
// in-place reorders of the array at its own path, since they move its
// direct children.
func (f Filter) matchesPath(c Change) bool {
	p := c.Path
	switch f.mode {
	case modePath:
		return p.String() == ParsePath(f.path).String()
	case modePathsOf:
		base := ParsePath(f.path)
		if !p.HasPrefix(base) {
			return false
		}
		if len(p) == len(base) {
			return c.Type == Reverse || c.Type == Shuffle
		}
		return len(p) == len(base)+1
	case modePathsFrom:
		return p.HasPrefix(ParsePath(f.path))
	default:
		return true
	}
}

// changeEnv is the environment Where expressions run against.
type changeEnv struct {
	Type     string `expr:"type"`
	Path     string `expr:"path"`
	Key      string `expr:"key"`
	Depth    int    `expr:"depth"`
	Value    any    `expr:"value"`
	OldValue any    `expr:"oldValue"`
}

func newChangeEnv(c Change) changeEnv {
	return changeEnv{
		Type:     string(c.Type),
		Path:     c.Path.String(),
		Key:      c.Path.Key(),
		Depth:    len(c.Path),
		Value:    c.Value,
		OldValue: c.OldValue,
	}
}

// evalWhere runs a compiled Where program against c.
func evalWhere(program *vm.Program, c Change) (bool, error) {
	out, err := expr.Run(program, newChangeEnv(c))
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}
