package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/livestore/internal/script"
	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
)

func quietHost() *host.Config {
	return &host.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func mustScript(t *testing.T, src string) *script.Script {
	t.Helper()
	s, err := script.Parse([]byte(src))
	require.NoError(t, err)
	return s
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestRunWatchPrintsOneRenderPerTurn(t *testing.T) {
	steps := mustScript(t, `
- op: set
  path: count
  value: 1
- op: set
  path: count
  value: 2
- op: flush
- op: push
  path: items
  value: x
`)
	raw := map[string]any{"count": 0, "items": []any{}}

	var out bytes.Buffer
	require.NoError(t, runWatch(&out, raw, steps, livestore.All(), quietHost()))

	assert.Equal(t, []string{
		`render 1 rev=0 {"count":0,"items":[]}`,
		`render 2 rev=1 {"count":2,"items":[]}`,
		`render 3 rev=2 {"count":2,"items":["x"]}`,
	}, lines(out.String()))
}

func TestRunWatchPathsFromIgnoresOtherPaths(t *testing.T) {
	steps := mustScript(t, `
- op: set
  path: other
  value: 1
- op: flush
- op: set
  path: user.name
  value: bob
`)
	raw := map[string]any{"user": map[string]any{"name": "ann"}, "other": 0}

	var out bytes.Buffer
	require.NoError(t, runWatch(&out, raw, steps, livestore.PathsFrom("user"), quietHost()))

	got := lines(out.String())
	require.Len(t, got, 2)
	assert.Equal(t, `render 2 rev=1 {"other":1,"user":{"name":"bob"}}`, got[1])
}

func TestRunWatchOffNeverRerenders(t *testing.T) {
	steps := mustScript(t, `
- op: set
  path: a
  value: 2
`)

	var out bytes.Buffer
	require.NoError(t, runWatch(&out, map[string]any{"a": 1}, steps, livestore.Off(), quietHost()))

	assert.Equal(t, []string{`render 1 rev=0 {"a":1}`}, lines(out.String()))
}

func TestRunWatchStopsOnFailedStep(t *testing.T) {
	steps := mustScript(t, `
- op: push
  path: a
  value: 2
`)

	var out bytes.Buffer
	err := runWatch(&out, map[string]any{"a": 1}, steps, livestore.All(), quietHost())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E105")
}

func TestRunWatchRejectsPrimitiveDocument(t *testing.T) {
	var out bytes.Buffer
	err := runWatch(&out, 42, &script.Script{}, livestore.All(), quietHost())
	require.Error(t, err)
	assert.ErrorIs(t, err, livestore.ErrInvalidArgument)
	assert.Empty(t, out.String())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWatchCommand(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "state.yaml", "todos: []\n")
	steps := writeFile(t, dir, "steps.yaml", "- op: push\n  path: todos\n  value: milk\n")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"watch", "--config", "", "--doc", doc, "--script", steps})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{
		`render 1 rev=0 {"todos":[]}`,
		`render 2 rev=1 {"todos":["milk"]}`,
	}, lines(out.String()))
}

func TestWatchCommandNeedsDocument(t *testing.T) {

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"watch", "--config", ""})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E302")
}
