package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/custodia-labs/passage-highlights/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	validate   *validator.Validate

	// Services
	sessionService     driving.SessionService
	annotationService  driving.AnnotationService
	persistenceService driving.PersistenceService

	// Infrastructure
	records  Pinger // durable record store health check
	recovery Pinger // recovery mirror health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	sessionService driving.SessionService,
	annotationService driving.AnnotationService,
	persistenceService driving.PersistenceService,
	records Pinger,
	recovery Pinger, // can be nil
) *Server {
	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		validate:           validator.New(),
		sessionService:     sessionService,
		annotationService:  annotationService,
		persistenceService: persistenceService,
		records:            records,
		recovery:           recovery,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.wrap(s.router, cfg.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// wrap applies the middleware chain shared by every route
func (s *Server) wrap(h http.Handler, allowedOrigins []string) http.Handler {
	h = NewMetricsMiddleware().Handler(h)
	if len(allowedOrigins) > 0 {
		h = NewCORSMiddleware(allowedOrigins).Handler(h)
	}
	h = NewLoggingMiddleware().Handler(h)
	return NewRecoveryMiddleware().Handler(h)
}

// Handler returns the root handler, middleware included
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	sessionMiddleware := NewSessionMiddleware(s.sessionService)
	authed := func(h http.HandlerFunc) http.Handler {
		return sessionMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", promhttp.Handler())
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Session endpoints (public; they issue the session token)
	s.router.HandleFunc("POST /api/v1/sessions", s.handleStartSession)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/resume", s.handleResumeSession)

	// Current session
	s.router.Handle("GET /api/v1/session", authed(s.handleGetSession))
	s.router.Handle("PUT /api/v1/session/subject", authed(s.handleSetSubject))
	s.router.Handle("POST /api/v1/session/reset", authed(s.handleResetSession))
	s.router.Handle("DELETE /api/v1/session", authed(s.handleEndSession))

	// Consumer bindings
	s.router.Handle("POST /api/v1/consumers", authed(s.handleBindConsumer))
	s.router.Handle("GET /api/v1/consumers/{key}", authed(s.handleResolveConsumer))

	// Documents and annotation spans
	s.router.Handle("GET /api/v1/documents/{id}", authed(s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/original", authed(s.handleGetOriginal))
	s.router.Handle("GET /api/v1/documents/{id}/spans", authed(s.handleListSpans))
	s.router.Handle("POST /api/v1/documents/{id}/annotations", authed(s.handleCreateAnnotation))
	s.router.Handle("POST /api/v1/documents/{id}/spans/activate", authed(s.handleActivateSpan))
	s.router.Handle("POST /api/v1/documents/{id}/spans/strike", authed(s.handleToggleStrike))
	s.router.Handle("DELETE /api/v1/documents/{id}/spans", authed(s.handleRemoveSpan))
	s.router.Handle("POST /api/v1/documents/{id}/clear", authed(s.handleClearDocument))

	// Persistence
	s.router.Handle("POST /api/v1/commit", authed(s.handleCommit))
	s.router.Handle("GET /api/v1/export", authed(s.handleExport))
	s.router.Handle("POST /api/v1/import", authed(s.handleImport))
	s.router.Handle("GET /api/v1/records", authed(s.handleListRecords))
	s.router.Handle("GET /api/v1/records/{id}", authed(s.handleGetRecord))
	s.router.Handle("DELETE /api/v1/records/{id}", authed(s.handleDeleteRecord))
	s.router.Handle("DELETE /api/v1/records", authed(s.handleDeleteRecords))
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api docs not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
