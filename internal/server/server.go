// Package server exposes sessions over HTTP and streams document updates
// over a WebSocket.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/livedoc/internal/audit"
	"github.com/ziadkadry99/livedoc/internal/session"
	"github.com/ziadkadry99/livedoc/internal/stt"
)

// ServiceName is reported by the info and health endpoints.
const ServiceName = "livedoc"

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	FrontendURL string // allowed CORS origin in addition to the dev ports
	AllowAll    bool   // allow all CORS origins (dev mode)
	Version     string
}

// Deps are the collaborators the handlers drive. Audit and Transcriber may
// be nil: audit routes are then not mounted and audio chunks are refused.
type Deps struct {
	Sessions    *session.Manager
	Hub         *session.Hub
	Processor   session.Processor
	Transcriber stt.Transcriber
	Audit       *audit.Store
	Logger      *log.Logger
}

// Server is the livedoc HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *log.Logger
	router     chi.Router
	httpServer *http.Server
	now        func() time.Time
}

// New creates a server with all routes mounted.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if deps.Hub == nil {
		deps.Hub = session.NewHub(logger)
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "server"),
		now:    time.Now,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleDeleteSession)
		r.Get("/{id}/document", s.handleGetDocument)
		r.Post("/{id}/export", s.handleExport)
	})

	if s.deps.Audit != nil {
		audit.RegisterRoutes(r, s.deps.Audit)
	}

	return r
}

func (s *Server) allowedOrigins() []string {
	origins := []string{"http://localhost:5173", "http://localhost:5174"}
	if s.cfg.FrontendURL != "" {
		origins = append([]string{s.cfg.FrontendURL}, origins...)
	}
	return origins
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the broadcast hub shared by socket connections.
func (s *Server) Hub() *session.Hub { return s.deps.Hub }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    ServiceName,
		"version": s.cfg.Version,
		"status":  "running",
		"endpoints": map[string]string{
			"websocket": "/ws",
			"health":    "/health",
			"sessions":  "/api/sessions",
			"audit":     "/api/audit",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}
