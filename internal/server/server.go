package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/export"
	"github.com/Dregen-Yor/auto-invoice/internal/pipeline"
	"github.com/Dregen-Yor/auto-invoice/internal/state"
)

// Enqueuer hands accepted uploads to the extraction workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, job pipeline.Job) error
}

// BasicAuth holds optional basic authentication credentials. Empty
// credentials disable the check.
type BasicAuth struct {
	Username string
	Password string
}

// Server exposes the JSON API the browser client talks to.
type Server struct {
	store   *state.Store
	queue   Enqueuer
	exports *export.Service
	auth    BasicAuth
	origin  string
	logger  *slog.Logger
	mux     *http.ServeMux
	httpSrv *http.Server
}

func NewServer(store *state.Store, queue Enqueuer, exports *export.Service, auth BasicAuth, origin string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if origin == "" {
		origin = "*"
	}
	s := &Server{
		store:   store,
		queue:   queue,
		exports: exports,
		auth:    auth,
		origin:  origin,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes, most specific paths first.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /api/people/{id}/invoices/{inv}/retry", s.requireAuth(s.handleRetryInvoice))
	s.mux.HandleFunc("PUT /api/people/{id}/invoices/{inv}", s.requireAuth(s.handleEditInvoice))
	s.mux.HandleFunc("DELETE /api/people/{id}/invoices/{inv}", s.requireAuth(s.handleDeleteInvoice))
	s.mux.HandleFunc("POST /api/people/{id}/invoices", s.requireAuth(s.handleUploadInvoices))

	s.mux.HandleFunc("GET /api/people", s.requireAuth(s.handleListPeople))
	s.mux.HandleFunc("POST /api/people", s.requireAuth(s.handleCreatePerson))
	s.mux.HandleFunc("PUT /api/people/{id}", s.requireAuth(s.handleUpdatePerson))
	s.mux.HandleFunc("DELETE /api/people/{id}", s.requireAuth(s.handleDeletePerson))

	s.mux.HandleFunc("GET /api/config", s.requireAuth(s.handleGetConfig))
	s.mux.HandleFunc("PUT /api/config", s.requireAuth(s.handlePutConfig))
	s.mux.HandleFunc("GET /api/trip", s.requireAuth(s.handleGetTrip))
	s.mux.HandleFunc("PUT /api/trip", s.requireAuth(s.handlePutTrip))

	s.mux.HandleFunc("GET /api/export/details", s.requireAuth(s.handleExportDetails))
	s.mux.HandleFunc("GET /api/export/summary", s.requireAuth(s.handleExportSummary))
}

// authenticate checks basic auth credentials.
func (s *Server) authenticate(r *http.Request) bool {
	if s.auth.Username == "" && s.auth.Password == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return false
	}
	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}
	return credentials[0] == s.auth.Username && credentials[1] == s.auth.Password
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="auto-invoice"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", s.origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux.ServeHTTP)
}

// ServeHTTP implements http.Handler for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
