package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/ai"
	"github.com/profile-screener/internal/config"
	"github.com/profile-screener/internal/screen"
	"github.com/profile-screener/internal/source"
	"github.com/profile-screener/internal/web/handlers"
	"github.com/profile-screener/internal/web/middleware"
)

// Server exposes the screening engine over HTTP.
type Server struct {
	cfg        *config.Config
	engine     *screen.Engine
	discoverer *source.Discoverer
	extractor  ai.Extractor
	log        *zap.Logger
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
}

// NewServer wires the engine, source discovery and the optional extractor
// into an HTTP server. The extractor may be nil; the extraction endpoints
// then answer 501.
func NewServer(cfg *config.Config, engine *screen.Engine, discoverer *source.Discoverer, extractor ai.Extractor, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:        cfg,
		engine:     engine,
		discoverer: discoverer,
		extractor:  extractor,
		log:        log,
	}

	s.setupRoutes()

	// CORS and logging wrap the router itself, so preflight requests and
	// unmatched paths pass through them too.
	var handler http.Handler = s.router
	handler = middleware.RequestLogging(s.log)(handler)
	handler = middleware.CORS()(handler)
	s.handler = handler

	// Write timeout must outlive the longest permitted screening run.
	writeTimeout := cfg.Timeout + 15*time.Second

	s.httpServer = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	screening := &handlers.ScreeningHandler{
		Engine:     s.engine,
		Extractor:  s.extractor,
		Discoverer: s.discoverer,
		Timeout:    s.cfg.Timeout,
		Log:        s.log,
	}
	sources := &handlers.SourcesHandler{Discoverer: s.discoverer}
	extract := &handlers.ExtractHandler{Extractor: s.extractor, Log: s.log}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", handlers.Health).Methods("GET")
	api.HandleFunc("/sources", sources.ListSources).Methods("GET")
	api.HandleFunc("/fields", handlers.ListFields).Methods("GET")
	api.HandleFunc("/schema", screening.DetectSchema).Methods("POST")
	api.HandleFunc("/match", screening.Match).Methods("POST")
	api.HandleFunc("/extract", extract.Extract).Methods("POST")

	if s.cfg.APIKey != "" {
		api.Use(middleware.RequireAPIKey(s.cfg.APIKey))
	}
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", zap.Error(err))
		}
	}()

	<-stop
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.engine.Release()
	s.log.Info("server stopped")
	return nil
}
