package host

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/livestore/pkg/host"

// Config holds configuration for a Host.
type Config struct {
	// MaxQueue is the size of the task queue buffer. Tasks dispatched while
	// the queue is full are logged and discarded.
	// Default: 256.
	MaxQueue int

	// MaxSettlePasses bounds how many effect/render passes one task may
	// trigger before the host gives up and logs a render loop.
	// Default: 100.
	MaxSettlePasses int

	// Logger receives loop diagnostics.
	// Default: slog.Default().
	Logger *slog.Logger

	// Tracer creates a span per task.
	// Default: the global OpenTelemetry tracer provider.
	Tracer trace.Tracer

	// Recorder receives loop metrics.
	Recorder Recorder
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxQueue:        256,
		MaxSettlePasses: 100,
		Logger:          slog.Default(),
		Tracer:          otel.Tracer(tracerName),
		Recorder:        nopRecorder{},
	}
}

// withDefaults fills zero fields of a copy of c.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.MaxQueue <= 0 {
		out.MaxQueue = def.MaxQueue
	}
	if out.MaxSettlePasses <= 0 {
		out.MaxSettlePasses = def.MaxSettlePasses
	}
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	if out.Tracer == nil {
		out.Tracer = def.Tracer
	}
	if out.Recorder == nil {
		out.Recorder = def.Recorder
	}
	return &out
}

// Recorder receives host loop metrics. pkg/metrics provides a Prometheus
// implementation.
type Recorder interface {
	TaskCompleted(elapsed time.Duration, panicked bool)
	TaskDropped()
	ComponentRendered(elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) TaskCompleted(time.Duration, bool) {}
func (nopRecorder) TaskDropped()                      {}
func (nopRecorder) ComponentRendered(time.Duration)   {}
