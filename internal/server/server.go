// Package server exposes the contact store over HTTP.
//
// The REST surface lives under /api and is described with OpenAPI (huma).
// /messages accepts the same request vocabulary the browser extension uses,
// and /health and /metrics serve probes and Prometheus scrapes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/AbduSami-bK/contact-manager/internal/messaging"
	"github.com/AbduSami-bK/contact-manager/internal/nativehost"
	"github.com/AbduSami-bK/contact-manager/internal/store"
)

const serviceName = "contact-manager"

var buckets = metrics.ExponentialBuckets(1e-3, 5, 6)

type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Version         string
	Logger          zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            7438,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Version:         "dev",
		Logger:          zerolog.Nop(),
	}
}

type Server struct {
	store      *store.Store
	dispatcher *messaging.Dispatcher
	cfg        Config
	log        zerolog.Logger
	metrics    *metrics.Set
	handler    http.Handler
}

// New builds a server on the default config listening on port.
func New(s *store.Store, port int) *Server {
	cfg := DefaultConfig()
	cfg.Port = port
	return NewWithConfig(s, cfg)
}

func NewWithConfig(s *store.Store, cfg Config) *Server {
	srv := &Server{
		store:      s,
		dispatcher: messaging.New(s, cfg.Logger),
		cfg:        cfg,
		log:        cfg.Logger.With().Str("component", "http").Logger(),
		metrics:    metrics.NewSet(),
	}
	srv.handler = srv.routes()
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", hs.Addr)
	if err != nil {
		s.log.Error().Stack().Err(err).Str("addr", hs.Addr).Msg("http listen failed")
		return fmt.Errorf("contacts: listen %s: %w", hs.Addr, err)
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Stack().Err(err).Msg("http shutdown failed")
			return fmt.Errorf("contacts: shutdown: %w", err)
		}
		s.log.Info().Msg("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.log.Error().Stack().Err(err).Msg("http serve failed")
		return fmt.Errorf("contacts: serve: %w", err)
	}
}

// ─── Routes ──────────────────────────────────────────────────────────────────

func (s *Server) routes() http.Handler {
	s.metrics.NewGauge(`contacts_total`, s.gauge(func(st *store.Stats) int { return st.Total }))
	s.metrics.NewGauge(`contacts_favorites`, s.gauge(func(st *store.Stats) int { return st.Favorites }))

	r := mux.NewRouter()
	r.Use(s.recoverPanics)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/messages", s.handleMessages).Methods(http.MethodPost)

	root := humamux.New(r, huma.DefaultConfig("contact-manager", s.cfg.Version))
	api := huma.NewGroup(root, "/api")
	api.UseMiddleware(s.observe)
	(&contactsAPI{store: s.store}).register(api)
	(&adminAPI{store: s.store}).register(api)
	return r
}

func (s *Server) gauge(pick func(*store.Stats) int) func() float64 {
	return func() float64 {
		st, err := s.store.Stats(context.Background())
		if err != nil {
			return 0
		}
		return float64(pick(st))
	}
}

// observe records per-operation latency and counts.
func (s *Server) observe(ctx huma.Context, next func(huma.Context)) {
	op, start := ctx.Operation(), time.Now()
	next(ctx)
	labels := fmt.Sprintf(`{method=%q,path=%q,status="%d"}`, op.Method, op.Path, ctx.Status())
	s.metrics.GetOrCreatePrometheusHistogramExt(`http_request_duration_seconds`+labels, buckets).UpdateDuration(start)
	s.metrics.GetOrCreateCounter(`http_requests_total` + labels).Inc()
	s.log.Debug().
		Str("method", op.Method).
		Str("path", op.Path).
		Int("status", ctx.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error": http.StatusText(http.StatusInternalServerError),
					"code":  http.StatusInternalServerError,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  serviceName,
		"version":  s.cfg.Version,
		"slot":     s.store.SlotName(),
		"contacts": st.Total,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// handleMessages always answers 200; failures travel in the response body.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, nativehost.MaxIncoming+1))
	var resp messaging.Response
	switch {
	case err != nil:
		resp = messaging.Response{Error: fmt.Sprintf("read message: %v", err)}
	case len(raw) > nativehost.MaxIncoming:
		resp = messaging.Response{Error: "message exceeds size limit"}
	default:
		resp = s.dispatcher.HandleRaw(r.Context(), raw)
	}
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`messages_total{success="%t"}`, resp.Success)).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
