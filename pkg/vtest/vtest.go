package vtest

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
)

// Harness is a manually stepped host for tests.
type Harness struct {
	t    testing.TB
	host *host.Host
	logs *lockedWriter
}

// HarnessOption configures a Harness.
type HarnessOption func(*host.Config)

// WithRecorder sets the host's metrics recorder.
func WithRecorder(r host.Recorder) HarnessOption {
	return func(c *host.Config) {
		c.Recorder = r
	}
}

// WithMaxQueue sets the host's task queue size.
func WithMaxQueue(n int) HarnessOption {
	return func(c *host.Config) {
		c.MaxQueue = n
	}
}

// New creates a Harness whose host logs at debug level into a buffer. The
// host is closed when the test ends.
func New(t testing.TB, opts ...HarnessOption) *Harness {
	t.Helper()

	logs := &lockedWriter{w: &bytes.Buffer{}}
	cfg := &host.Config{
		Logger: slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h := host.New(cfg)
	t.Cleanup(h.Close)

	return &Harness{t: t, host: h, logs: logs}
}

// Host returns the underlying host.
func (h *Harness) Host() *host.Host {
	return h.host
}

// Logs returns everything the host has logged so far.
func (h *Harness) Logs() string {
	h.logs.mu.Lock()
	defer h.logs.mu.Unlock()
	return h.logs.w.String()
}

// Store creates a store that delivers on the harness host. It fails the
// test if construction fails.
func (h *Harness) Store(raw any, opts ...livestore.Option) *livestore.Store {
	h.t.Helper()

	opts = append([]livestore.Option{livestore.WithScheduler(h.host)}, opts...)
	s, err := livestore.New(raw, opts...)
	if err != nil {
		h.t.Fatalf("livestore.New(%T) error: %v", raw, err)
	}
	return s
}

// Mount mounts render as a component and returns its probe.
func (h *Harness) Mount(render func() string) *Probe {
	p := &Probe{}
	p.instance = h.host.Mount(host.FuncComponent(func() string {
		out := render()
		p.record(out)
		return out
	}))
	p.host = h.host
	return p
}

// Turn runs fn as one host task, then drains the queue. It returns the
// number of tasks run.
func (h *Harness) Turn(fn func()) int {
	h.host.Dispatch(fn)
	return h.host.Drain()
}

// Settle drains the queue. It returns the number of tasks run.
func (h *Harness) Settle() int {
	return h.host.Drain()
}

// Probe observes a mounted component.
type Probe struct {
	instance *host.ComponentInstance
	host     *host.Host

	mu      sync.Mutex
	history []string
}

func (p *Probe) record(out string) {
	p.mu.Lock()
	p.history = append(p.history, out)
	p.mu.Unlock()
}

// Instance returns the mounted component instance.
func (p *Probe) Instance() *host.ComponentInstance {
	return p.instance
}

// Output returns the last rendered output.
func (p *Probe) Output() string {
	return p.instance.Output()
}

// Renders returns how many times the component has rendered.
func (p *Probe) Renders() int {
	return int(p.instance.Renders())
}

// History returns every output the component rendered without panicking.
func (p *Probe) History() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.history...)
}

// Err returns the error from the last render.
func (p *Probe) Err() error {
	return p.instance.Err()
}

// Unmount unmounts the component.
func (p *Probe) Unmount() {
	p.host.Unmount(p.instance)
}

// ExpectRenders asserts the component rendered exactly n times.
func ExpectRenders(t testing.TB, p *Probe, n int) {
	t.Helper()
	if got := p.Renders(); got != n {
		t.Errorf("expected %d renders, got %d (history: %q)", n, got, p.History())
	}
}

// ExpectOutput asserts the last rendered output.
func ExpectOutput(t testing.TB, p *Probe, want string) {
	t.Helper()
	if got := p.Output(); got != want {
		t.Errorf("expected output %q, got %q", want, truncate(got, 500))
	}
}

// ExpectContains asserts the last rendered output contains substr.
func ExpectContains(t testing.TB, p *Probe, substr string) {
	t.Helper()
	if got := p.Output(); !strings.Contains(got, substr) {
		t.Errorf("expected output to contain %q, got:\n%s", substr, truncate(got, 500))
	}
}

// ExpectHistory asserts the exact sequence of rendered outputs.
func ExpectHistory(t testing.TB, p *Probe, want ...string) {
	t.Helper()
	got := p.History()
	if len(got) != len(want) {
		t.Errorf("expected %d renders %q, got %d %q", len(want), want, len(got), got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("render %d: expected %q, got %q", i+1, want[i], got[i])
		}
	}
}

// lockedWriter serializes writes from the loop and test goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
