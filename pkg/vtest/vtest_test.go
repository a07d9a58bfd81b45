package vtest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/livestore/pkg/livestore"
	"github.com/vango-dev/livestore/pkg/reactive"
)

func TestHarnessTurnDeliversAndRerenders(t *testing.T) {
	h := New(t)
	store := h.Store(map[string]any{"count": 0})

	p := h.Mount(func() string {
		return livestore.UseStore(store).String()
	})

	if n := h.Turn(func() { _ = store.Value().Set("count", 1) }); n != 2 {
		t.Errorf("Turn ran %d tasks, want 2 (mutation and flush)", n)
	}

	ExpectRenders(t, p, 2)
	ExpectOutput(t, p, `{"count":1}`)
	ExpectHistory(t, p, `{"count":0}`, `{"count":1}`)
}

func TestMutationsOutsideTurnWaitForSettle(t *testing.T) {
	h := New(t)
	store := h.Store([]any{})

	p := h.Mount(func() string {
		return livestore.UseStore(store).String()
	})

	_ = store.Value().Push("", "a")
	_ = store.Value().Push("", "b")
	ExpectRenders(t, p, 1)

	if n := h.Settle(); n != 1 {
		t.Errorf("Settle ran %d tasks, want 1", n)
	}
	ExpectHistory(t, p, `[]`, `["a","b"]`)
}

func TestProbeUnmount(t *testing.T) {
	h := New(t)
	store := h.Store(map[string]any{"a": 1})

	p := h.Mount(func() string {
		return livestore.UseStore(store, livestore.PathsFrom("a")).String()
	})
	p.Unmount()

	h.Turn(func() { _ = store.Value().Set("a", 2) })
	ExpectRenders(t, p, 1)
	if store.Observed() {
		t.Error("store still observed after unmount")
	}
	if !strings.Contains(h.Logs(), "component unmounted") {
		t.Errorf("expected unmount to be logged, got:\n%s", h.Logs())
	}
}

func TestProbeErr(t *testing.T) {
	h := New(t)

	p := h.Mount(func() string {
		livestore.UseStore(nil)
		return ""
	})

	if !errors.Is(p.Err(), livestore.ErrInvalidArgument) {
		t.Errorf("Err() = %v, want ErrInvalidArgument", p.Err())
	}
	if len(p.History()) != 0 {
		t.Errorf("History() = %q, want none", p.History())
	}
}

func TestExpectContains(t *testing.T) {
	h := New(t)
	p := h.Mount(func() string {
		n := reactive.UseSignal(3)
		return fmt.Sprintf("<b>%d</b>", n.Get())
	})

	ExpectContains(t, p, "<b>3</b>")
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("truncate = %q", got)
	}
}
