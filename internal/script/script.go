package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/pkg/observable"
)

// Ops understood by Step.
const (
	OpSet     = "set"
	OpDelete  = "delete"
	OpPush    = "push"
	OpPop     = "pop"
	OpShift   = "shift"
	OpUnshift = "unshift"
	OpReverse = "reverse"
	OpFlush   = "flush"
)

// Step is one scripted mutation.
type Step struct {
	Op     string `yaml:"op"`
	Path   string `yaml:"path,omitempty"`
	Value  any    `yaml:"value,omitempty"`
	Values []any  `yaml:"values,omitempty"`

	// line is the step's position in the source, for error messages.
	line int
}

// Script is a parsed mutation script split into turns.
type Script struct {
	Turns [][]Step
}

// Steps returns the number of mutation steps across all turns.
func (s *Script) Steps() int {
	n := 0
	for _, turn := range s.Turns {
		n += len(turn)
	}
	return n
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, errors.New("E301").Wrap(err)
	}

	script := &Script{}
	var turn []Step
	for i := range nodes {
		var step Step
		if err := nodes[i].Decode(&step); err != nil {
			return nil, errors.New("E301").Wrapf("line %d: %v", nodes[i].Line, err)
		}
		step.line = nodes[i].Line

		if err := step.Validate(); err != nil {
			return nil, err
		}
		if step.Op == OpFlush {
			if len(turn) > 0 {
				script.Turns = append(script.Turns, turn)
			}
			turn = nil
			continue
		}
		turn = append(turn, step)
	}
	if len(turn) > 0 {
		script.Turns = append(script.Turns, turn)
	}
	return script, nil
}

// LoadFile reads and parses a script file.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E301").
			WithDetail("Cannot read script " + path).
			Wrap(err)
	}
	return Parse(data)
}

// Validate checks that the step names a known op with the fields it needs.
func (s Step) Validate() error {
	fail := func(format string, args ...any) error {
		return errors.New("E301").Wrapf("line %d: %s", s.line, fmt.Sprintf(format, args...))
	}

	switch s.Op {
	case OpSet, OpDelete:
		if s.Path == "" {
			return fail("%s needs a path", s.Op)
		}
	case OpPush, OpUnshift:
		if s.Value == nil && len(s.Values) == 0 {
			return fail("%s needs value or values", s.Op)
		}
	case OpPop, OpShift, OpReverse, OpFlush:
	case "":
		return fail("missing op")
	default:
		return fail("unknown op %q", s.Op)
	}
	return nil
}

func (s Step) values() []any {
	if len(s.Values) > 0 {
		return s.Values
	}
	return []any{s.Value}
}

// Apply performs the step on o.
func (s Step) Apply(o *observable.Object) error {
	var err error
	switch s.Op {
	case OpSet:
		err = o.Set(s.Path, s.Value)
	case OpDelete:
		err = o.Delete(s.Path)
	case OpPush:
		err = o.Push(s.Path, s.values()...)
	case OpUnshift:
		err = o.Unshift(s.Path, s.values()...)
	case OpPop:
		_, err = o.Pop(s.Path)
	case OpShift:
		_, err = o.Shift(s.Path)
	case OpReverse:
		err = o.Reverse(s.Path)
	case OpFlush:
	default:
		return s.Validate()
	}
	if err != nil {
		return fmt.Errorf("line %d: %s %q: %w", s.line, s.Op, s.Path, err)
	}
	return nil
}

// Apply runs steps in order and stops at the first error.
func Apply(o *observable.Object, steps []Step) error {
	for _, step := range steps {
		if err := step.Apply(o); err != nil {
			return err
		}
	}
	return nil
}
