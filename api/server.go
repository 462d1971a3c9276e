// Package api provides the read-only HTTP API for yieldwatch.
//
// It serves spread analyses (JSON, HTML or text), the SVG charts, the
// provider list, the running configuration and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seenimoa/yieldwatch/internal/config"
	"github.com/seenimoa/yieldwatch/internal/logging"
	"github.com/seenimoa/yieldwatch/internal/pipeline"
	"github.com/seenimoa/yieldwatch/internal/report"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	runner  *pipeline.Runner
	log     zerolog.Logger
	version string

	configFile string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, runner *pipeline.Runner, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		log:     log,
		version: "dev",
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.timeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) timeout() time.Duration {
	if s.cfg.API.TimeoutSec > 0 {
		return time.Duration(s.cfg.API.TimeoutSec) * time.Second
	}
	return 120 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout()))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.runner.Metrics().Registry(), promhttp.HandlerOpts{}))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/charts", s.handleChartList)
		r.Get("/charts/{name}", s.handleChart)

		// Providers
		r.Get("/providers", s.handleProviders)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(began)).
			Msg("http request")
	})
}

// ============================================================
// Request/Response Types
// ============================================================

// APIResponse is the standard API response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProviderEntry describes one registered provider.
type ProviderEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Website     string   `json:"website,omitempty"`
	Models      []string `json:"models"`
	Maturities  []string `json:"maturities,omitempty"`
	Credentials []string `json:"credentials,omitempty"` // env var names only
	Default     []string `json:"default_for,omitempty"`
}

// analysisRequest is the parsed query string of the analysis endpoints.
type analysisRequest struct {
	opts   pipeline.Options
	format report.Format
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":  "ok",
			"version": s.version,
			"sources": s.runner.Sources(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// parseAnalysisRequest reads start, end, days, format and offline.
func (s *Server) parseAnalysisRequest(r *http.Request) (analysisRequest, error) {
	q := r.URL.Query()
	req := analysisRequest{format: report.FormatJSON}

	days := s.cfg.Analysis.LookbackDays
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, errors.New("days must be a positive integer")
		}
		days = n
	}
	start, end, err := pipeline.Window(q.Get("start"), q.Get("end"), days)
	if err != nil {
		return req, err
	}
	req.opts.Start, req.opts.End = start, end

	if v := q.Get("format"); v != "" {
		if !report.ValidFormat(v) {
			return req, errors.New("format must be one of: text, json, html")
		}
		req.format = report.Format(v)
	}
	if v := q.Get("offline"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("offline must be a boolean")
		}
		req.opts.Offline = b
	}
	return req, nil
}

// run executes the pipeline and maps failures to HTTP statuses.
func (s *Server) run(w http.ResponseWriter, r *http.Request, req analysisRequest) (*pipeline.Result, bool) {
	res, err := s.runner.Run(r.Context(), req.opts)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, pipeline.ErrOfflineDisabled):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
	return nil, false
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.run(w, r, req)
	if !ok {
		return
	}

	rc := s.runner.ReportConfig(req.format)
	if req.format == report.FormatJSON {
		doc, err := report.BuildDocument(res.Analysis, res.Meta, rc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: doc})
		return
	}

	w.Header().Set("Content-Type", req.format.ContentType())
	w.Header().Set("X-Run-ID", res.RunID)
	if err := report.Generate(w, res.Analysis, res.Meta, rc); err != nil {
		s.log.Error().Err(err).Str(logging.FieldRunID, res.RunID).Msg("writing report")
	}
}

func (s *Server) handleChartList(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.run(w, r, req)
	if !ok {
		return
	}
	charts, err := report.Charts(res.Analysis, s.runner.ReportConfig(report.FormatHTML))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	names := make([]string, len(charts))
	for i, c := range charts {
		names[i] = c.Name
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: names})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, err := s.parseAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.run(w, r, req)
	if !ok {
		return
	}
	charts, err := report.Charts(res.Analysis, s.runner.ReportConfig(report.FormatHTML))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, c := range charts {
		if c.Name == name {
			w.Header().Set("Content-Type", "image/svg+xml")
			w.Header().Set("X-Run-ID", res.RunID)
			_, _ = w.Write([]byte(c.SVG))
			return
		}
	}
	writeError(w, http.StatusNotFound, "chart not found: "+name)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	reg := s.runner.Registry()
	var out []ProviderEntry
	for _, info := range reg.List() {
		e := ProviderEntry{
			Name:        info.Name,
			Description: info.Description,
			Website:     info.Website,
			Maturities:  info.Maturities,
		}
		for _, m := range info.Models {
			e.Models = append(e.Models, string(m))
			if d, ok := reg.DefaultProvider(m); ok && d == info.Name {
				e.Default = append(e.Default, string(m))
			}
		}
		for _, c := range info.Credentials {
			e.Credentials = append(e.Credentials, c.EnvVar)
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
