package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/internal/script"
	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
	"github.com/vango-dev/livestore/pkg/metrics"
)

func serveCmd(a *app) *cobra.Command {
	var (
		listen string
		doc    string
		flags  bindFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a store over HTTP",
		Long: `Load a document into a store and serve it over HTTP. A component bound
to the store logs every re-render.

Routes:
  GET    /healthz      loop statistics
  GET    /watch        WebSocket stream of renders
  GET    /metrics      Prometheus metrics (unless disabled)
  GET    /store        the whole value
  GET    /store/{path} the value at path (segments separated by /)
  PUT    /store/{path} set path to the JSON body
  POST   /store/{path} push the JSON body onto the array at path
  DELETE /store/{path} delete path

Examples:
  livestore serve --doc state.yaml
  livestore serve --doc state.yaml --listen :9090 --paths-from user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			if doc != "" {
				a.cfg.Document = doc
			}
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			var raw any = map[string]any{}
			if a.cfg.Document != "" {
				if raw, err = script.LoadDocument(a.cfg.Document); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := a.cfg.NewLogger(cmd.ErrOrStderr())
			srv, err := newServer(a.cfg.Listen, raw, opts, serverOptions{
				logger:          logger,
				maxQueue:        a.cfg.Host.MaxQueue,
				maxSettlePasses: a.cfg.Host.MaxSettlePasses,
				metrics:         a.cfg.Metrics.Enabled,
				namespace:       a.cfg.Metrics.Namespace,
				registry:        prometheus.NewRegistry(),
			})
			if err != nil {
				return err
			}

			success(cmd, "Serving store on http://%s", a.cfg.Listen)
			return srv.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&doc, "doc", "d", "", "YAML or JSON document (default: empty object)")
	flags.register(cmd)

	return cmd
}

type serverOptions struct {
	logger          *slog.Logger
	maxQueue        int
	maxSettlePasses int
	metrics         bool
	namespace       string
	registry        *prometheus.Registry
}

// server wires a store, a host loop and an HTTP router.
type server struct {
	http      *http.Server
	host      *host.Host
	store     *livestore.Store
	component *host.ComponentInstance
	stream    *hub
	logger    *slog.Logger
}

func newServer(addr string, raw any, opts livestore.Options, so serverOptions) (*server, error) {
	var collector *metrics.Collector
	hostCfg := &host.Config{
		MaxQueue:        so.maxQueue,
		MaxSettlePasses: so.maxSettlePasses,
		Logger:          so.logger,
	}
	storeOpts := []livestore.Option{livestore.WithLogger(so.logger)}
	if so.metrics {
		collector = metrics.New(metrics.WithNamespace(so.namespace), metrics.WithRegistry(so.registry))
		hostCfg.Recorder = collector
		storeOpts = append(storeOpts, livestore.WithRecorder(collector))
	}

	h := host.New(hostCfg)
	store, err := livestore.New(raw, append(storeOpts, livestore.WithScheduler(h))...)
	if err != nil {
		h.Close()
		return nil, err
	}

	s := &server{host: h, store: store, stream: newHub(so.logger), logger: so.logger}
	s.component = h.Mount(host.FuncComponent(func() string {
		v, rev := livestore.UseStoreRevision(store, opts)
		out := v.String()
		so.logger.Info("store rendered", "revision", rev, "bytes", len(out))
		s.stream.publish(rev, out)
		return out
	}))
	if err := s.component.Err(); err != nil {
		h.Close()
		return nil, err
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(collector),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *server) routes(collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/watch", s.stream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/healthz", s.handleHealth)
		if collector != nil {
			r.Method(http.MethodGet, "/metrics", collector.Handler())
		}

		r.Route("/store", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/*", s.handleGet)
			r.Put("/*", s.handleSet)
			r.Post("/*", s.handlePush)
			r.Delete("/*", s.handleDelete)
		})
	})
	return r
}

// run serves until ctx is done, then shuts down the listener and the loop.
func (s *server) run(ctx context.Context) error {
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.host.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := s.http.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Warn("http shutdown", "error", shutdownErr)
	}
	s.stream.close()
	s.host.Close()
	<-loopDone
	return err
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// errLoopBusy is returned when the host queue rejects a mutation.
var errLoopBusy = stderrors.New("host queue full, retry later")

// onLoop runs fn as a host task and waits for it.
func (s *server) onLoop(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !s.host.Dispatch(func() { done <- fn() }) {
		return errLoopBusy
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.host.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"host":       s.host.ID,
		"tasks":      stats.Tasks,
		"renders":    s.component.Renders(),
		"components": stats.Components,
		"pending":    stats.Pending,
		"observed":   s.store.Observed(),
		"streams":    s.stream.size(),
	})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := storePath(r)
	v, ok := s.store.Value().Get(path)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no value at " + path})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleSet(w http.ResponseWriter, r *http.Request) {
	value, ok := readBody(w, r)
	if !ok {
		return
	}
	path := storePath(r)
	s.respond(w, r, func() error { return s.store.Value().Set(path, value) })
}

func (s *server) handlePush(w http.ResponseWriter, r *http.Request) {
	value, ok := readBody(w, r)
	if !ok {
		return
	}
	path := storePath(r)
	s.respond(w, r, func() error { return s.store.Value().Push(path, value) })
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := storePath(r)
	s.respond(w, r, func() error { return s.store.Value().Delete(path) })
}

// respond runs a mutation on the loop and writes the resulting value.
func (s *server) respond(w http.ResponseWriter, r *http.Request, mutate func() error) {
	if err := s.onLoop(r.Context(), mutate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// storePath converts the wildcard URL segment a/b/c into a.b.c.
func storePath(r *http.Request) string {
	return strings.ReplaceAll(strings.Trim(chi.URLParam(r, "*"), "/"), "/", ".")
}

func readBody(w http.ResponseWriter, r *http.Request) (any, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is not JSON: " + err.Error()})
		return nil, false
	}
	return value, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, livestore.ErrInvalidArgument):
		status = http.StatusBadRequest
	case stderrors.Is(err, errLoopBusy),
		stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	body := map[string]string{"error": err.Error()}
	var e *errors.Error
	if stderrors.As(err, &e) {
		body["code"] = e.Code
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
