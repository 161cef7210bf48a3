// Package api serves the simulator over REST and a WebSocket event feed.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/api/websocket"
	"github.com/ramonehamilton/booster-sim/internal/facade"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	cfg        Config

	// WebSocket hub for real-time events
	wsHub *websocket.Hub

	shopFacade       *facade.ShopFacade
	boosterFacade    *facade.BoosterFacade
	collectionFacade *facade.CollectionFacade
	systemFacade     *facade.SystemFacade
}

// Config holds configuration for the API server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// RequestTimeout bounds each request, including card pool fetches.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   2 * time.Minute,
		RequestTimeout: 90 * time.Second,
	}
}

// Facades holds all the facade instances needed by the API server.
type Facades struct {
	Shop       *facade.ShopFacade
	Boosters   *facade.BoosterFacade
	Collection *facade.CollectionFacade
	System     *facade.SystemFacade
}

// NewFacades builds every facade over services.
func NewFacades(services *facade.Services) *Facades {
	return &Facades{
		Shop:       facade.NewShopFacade(services),
		Boosters:   facade.NewBoosterFacade(services),
		Collection: facade.NewCollectionFacade(services),
		System:     facade.NewSystemFacade(services),
	}
}

// NewServer creates a new API server with the given facades.
func NewServer(cfg *Config, facades *Facades) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:           chi.NewRouter(),
		cfg:              *cfg,
		wsHub:            websocket.NewHub(cfg.AllowedOrigins...),
		shopFacade:       facades.Shop,
		boosterFacade:    facades.Boosters,
		collectionFacade: facades.Collection,
		systemFacade:     facades.System,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Content-Type enforcement for POST/PUT only (not GET/DELETE/OPTIONS)
	s.router.Use(s.jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the hub and listens in the background. The listener is bound
// before Start returns, so a busy port is reported here.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", ln.Addr().String()).Info("[API] Server listening")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("[API] Server error")
		}
	}()

	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and stops the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	log.Info("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// WebSocketHub returns the WebSocket hub for external integration.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewWebSocketObserver creates a new WebSocket observer that can be registered
// with an EventDispatcher to forward events to WebSocket clients.
func (s *Server) NewWebSocketObserver() *websocket.WebSocketObserver {
	return websocket.NewWebSocketObserver(s.wsHub)
}
