// Package http serves the operational endpoints of a docmerge process:
// health, build info, the directive vocabulary, template linting and
// Prometheus metrics. Generation itself is not exposed over HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/internal/directive"
	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/internal/validator"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxTemplateSize bounds POST /validate bodies.
const maxTemplateSize = 4 << 20

// Server holds the handler dependencies.
type Server struct {
	version  string
	gatherer prometheus.Gatherer
	fields   ports.FieldMapSource
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = strings.TrimSpace(v) }
}

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithFieldMaps applies field maps before linting.
func WithFieldMaps(src ports.FieldMapSource) Option {
	return func(s *Server) { s.fields = src }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler creates the HTTP handler.
func NewHandler(opts ...Option) http.Handler {
	s := &Server{
		version:  "dev",
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/directives", s.Directives)
	r.Post("/validate", s.Validate)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "docmerge",
		"version": s.version,
	})
}

// Directives handles GET /directives.
func (s *Server) Directives(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, directive.Names())
}

// ValidateResponse is the body of POST /validate.
type ValidateResponse struct {
	Template string            `json:"template"`
	Valid    bool              `json:"valid"`
	Issues   []validator.Issue `json:"issues"`
}

// Validate handles POST /validate. The body is a YAML template description;
// the optional "form" query parameter selects the per-form field map.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTemplateSize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tpl, err := file.ParseTemplate(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusBadRequest)
		return
	}

	form := r.URL.Query().Get("form")
	if form == "" {
		form = tpl.Name()
	}
	fm, err := s.fieldMap(r.Context(), form)
	if err != nil {
		http.Error(w, fmt.Sprintf("Field map error: %v", err), http.StatusInternalServerError)
		return
	}

	resp := ValidateResponse{Template: tpl.Name(), Valid: true, Issues: validator.Lint(tpl, fm)}
	for _, i := range resp.Issues {
		if i.Severity == validator.SeverityError {
			resp.Valid = false
		}
	}
	if resp.Issues == nil {
		resp.Issues = []validator.Issue{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fieldMap(ctx context.Context, form string) (domain.FieldMap, error) {
	if s.fields == nil {
		return domain.FieldMap{}, nil
	}
	defaults, err := s.fields.DefaultFields(ctx)
	if err != nil {
		return domain.FieldMap{}, err
	}
	custom, err := s.fields.CustomFields(ctx, form)
	if err != nil {
		return domain.FieldMap{}, err
	}
	return defaults.Overlay(custom), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}
