// Package server exposes machine definitions, layouts and the live view
// over HTTP.
//
// The server speaks the backend contract (/graph-data, /graph-data/{name},
// /machines) so that it can itself be used as the backend of another
// fsmflow client, and adds layout, render and view endpoints on top.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/fsmflow/pkg/controller"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/pipeline"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// RequestIDHeader carries the request id. Incoming ids are kept, otherwise
// one is generated.
const RequestIDHeader = "X-Request-ID"

// Backend provides machine descriptions. fsm registries wrapped with
// controller.FromRegistry, *mongo.Store and *client.Client satisfy it.
type Backend interface {
	Catalog(ctx context.Context) (*graph.Catalog, error)
	Machines(ctx context.Context) ([]graph.MachineInfo, error)
	Graph(ctx context.Context, name string) (graph.Description, error)
}

// Config holds the layout defaults used by /layout and /render.
type Config struct {
	Addr       string
	Directions layout.Directions
	Engine     string
	Size       layout.Size
	Spacing    layout.Spacing
}

// Server is the fsmflow HTTP server.
type Server struct {
	backend Backend
	runner  controller.Layouter
	view    *controller.Controller
	hub     *Hub
	cfg     Config
	logger  *log.Logger
}

// New returns a server. view may be nil, in which case the /view and
// /events routes are not mounted.
func New(backend Backend, runner controller.Layouter, view *controller.Controller, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Directions.Default == "" {
		cfg.Directions.Default = layout.DefaultDirection
	}
	return &Server{
		backend: backend,
		runner:  runner,
		view:    view,
		hub:     NewHub(logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors, s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/graph-data", s.handleCatalog)
	r.Get("/graph-data/{name}", s.handleGraph)
	r.Get("/machines", s.handleMachines)
	r.Get("/layout/{name}", s.handleLayout)
	r.Get("/render/{file}", s.handleRender)

	if s.view != nil {
		r.Get("/view", s.handleView)
		r.Post("/view/select/{name}", s.handleSelect)
		r.Post("/view/direction/{name}", s.handleDirection)
		r.Handle("/events", s.hub)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Code: string(errors.ErrCodeInvalidInput)})
	})
	return r
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
// When a view is attached, its snapshots are streamed to /events.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	if s.view != nil {
		go s.feed(ctx)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

// feed forwards controller snapshots to the hub.
func (s *Server) feed(ctx context.Context) {
	id, snaps := s.view.Subscribe()
	defer s.view.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			s.hub.Broadcast(snap)
		}
	}
}

// =============================================================================
// Backend contract
// =============================================================================

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.backend.Catalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	desc, err := s.graph(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) handleMachines(w http.ResponseWriter, r *http.Request) {
	infos, err := s.backend.Machines(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if infos == nil {
		infos = []graph.MachineInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// =============================================================================
// Layout and render
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	res, err := s.layout(r, chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	writeJSON(w, http.StatusOK, res.Flow)
}

// handleRender serves /render/{name}.{format}. The format is taken from
// the last dot so that machine names may contain dots.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	i := strings.LastIndexByte(file, '.')
	if i <= 0 {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidFormat, "missing format extension"))
		return
	}
	name, format := file[:i], file[i+1:]
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.layout(r, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := pipeline.Render(r.Context(), res.Flow, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("X-Cache", cacheHeader(res.CacheHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) layout(r *http.Request, name string) (*pipeline.Result, error) {
	if err := errors.ValidateMachineName(name); err != nil {
		return nil, err
	}
	q := r.URL.Query()

	dir := s.cfg.Directions.Lookup(name)
	if v := q.Get("direction"); v != "" {
		d, err := layout.ParseDirection(v)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	engine := s.cfg.Engine
	if v := q.Get("engine"); v != "" {
		engine = v
	}
	if engine != "" {
		if err := pipeline.ValidateEngine(engine); err != nil {
			return nil, err
		}
	}

	desc, err := s.backend.Graph(r.Context(), name)
	if err != nil {
		return nil, err
	}
	return s.runner.Layout(r.Context(), desc, pipeline.Options{
		Machine:   name,
		Direction: dir,
		Engine:    engine,
		Width:     s.cfg.Size.Width,
		Height:    s.cfg.Size.Height,
		NodeSep:   s.cfg.Spacing.NodeSep,
		RankSep:   s.cfg.Spacing.RankSep,
		Refresh:   q.Get("refresh") == "true",
		Logger:    s.logger,
	})
}

func (s *Server) graph(r *http.Request) (graph.Description, error) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateMachineName(name); err != nil {
		return graph.Description{}, err
	}
	return s.backend.Graph(r.Context(), name)
}

// =============================================================================
// View
// =============================================================================

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Select(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw := r.URL.Query().Get("direction")

	var err error
	if raw == "" || raw == "toggle" {
		err = s.view.SetDirection(r.Context(), name, s.view.Direction(name).Toggle())
	} else {
		var dir layout.Direction
		if dir, err = layout.ParseDirection(raw); err == nil {
			err = s.view.SetDirection(r.Context(), name, dir)
		}
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

// =============================================================================
// Responses and middleware
// =============================================================================

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, err)
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, errors.HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps /events streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
