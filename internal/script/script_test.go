package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/pkg/observable"
)

const sample = `
- {op: set, path: user.name, value: grace}
- {op: push, path: tags, values: [b, c]}
- {op: flush}
- {op: flush}
- {op: unshift, path: tags, value: a}
- {op: delete, path: user.email}
- {op: flush}
- {op: reverse, path: tags}
- {op: pop, path: tags}
- {op: shift, path: tags}
`

func TestParseSplitsTurns(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, s.Turns, 3)
	assert.Len(t, s.Turns[0], 2)
	assert.Len(t, s.Turns[1], 2)
	assert.Len(t, s.Turns[2], 3)
	assert.Equal(t, 7, s.Steps())
	assert.Equal(t, OpSet, s.Turns[0][0].Op)
	assert.Equal(t, "grace", s.Turns[0][0].Value)
	assert.Equal(t, []any{"b", "c"}, s.Turns[0][1].Values)
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Turns)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a list", "op: set"},
		{"unknown op", "- {op: explode}"},
		{"missing op", "- {path: a}"},
		{"set without path", "- {op: set, value: 1}"},
		{"push without value", "- {op: push, path: list}"},
		{"bad field type", "- {op: set, path: a, values: 3}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			var verr *errors.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "E301", verr.Code)
		})
	}
}

func TestErrorsMentionLine(t *testing.T) {
	_, err := Parse([]byte("- {op: set, path: a, value: 1}\n- {op: nope}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestApply(t *testing.T) {
	o, err := observable.From(map[string]any{
		"user": map[string]any{"name": "ada", "email": "ada@example.com"},
		"tags": []any{},
	}, observable.Async(false))
	require.NoError(t, err)

	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	for _, turn := range s.Turns {
		require.NoError(t, Apply(o, turn))
	}

	assert.Equal(t, map[string]any{
		"user": map[string]any{"name": "grace"},
		"tags": []any{"b"},
	}, o.Snapshot())
}

func TestApplyStopsAtFirstError(t *testing.T) {
	o, err := observable.From(map[string]any{"n": 1}, observable.Async(false))
	require.NoError(t, err)

	s, err := Parse([]byte("- {op: push, path: n, value: 2}\n- {op: set, path: m, value: 3}\n"))
	require.NoError(t, err)

	err = Apply(o, s.Turns[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), `push "n"`)
	assert.False(t, o.Has("m"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Turns, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errors.New("E301"))
}

func TestDocuments(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a": 1, "list": [1, 2]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "list": []any{1, 2}}, doc)

	doc, err = ParseDocument([]byte("a:\n  b: true\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": true}}, doc)

	doc, err = ParseDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, doc)

	_, err = ParseDocument([]byte("a: [unterminated"))
	assert.ErrorIs(t, err, errors.New("E302"))

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errors.New("E302"))
}
