package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/internal/batch"
	"github.com/jackzampolin/mitc/internal/compare"
	"github.com/jackzampolin/mitc/internal/config"
	"github.com/jackzampolin/mitc/internal/extract"
	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/llmcall"
	"github.com/jackzampolin/mitc/internal/metrics"
	"github.com/jackzampolin/mitc/internal/prompts"
	"github.com/jackzampolin/mitc/internal/prompts/comparison"
	"github.com/jackzampolin/mitc/internal/prompts/extraction"
	"github.com/jackzampolin/mitc/internal/providers"
	"github.com/jackzampolin/mitc/internal/server/endpoints"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// Server is the main mitc HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: from config, else 0.0.0.0)
	Host string
	// Port is the port to listen on (default: from config, else 8000)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// Nil runs on defaults.
	ConfigManager *config.Manager
	// Registry replaces the registry built from configuration.
	Registry *providers.Registry
	// FieldsFile overrides the configured field catalog file.
	FieldsFile string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = fmt.Sprint(appCfg.Server.Port)
	}
	if cfg.FieldsFile != "" {
		c := *appCfg
		c.Fields.File = cfg.FieldsFile
		appCfg = &c
	}

	// Create provider registry
	registry := cfg.Registry
	if registry == nil {
		registry = providers.NewRegistry()
		registry.SetLogger(cfg.Logger)
		registry.Reload(context.Background(), appCfg.ToProviderRegistryConfig())

		// Watch for config changes
		if cfg.ConfigManager != nil {
			cfg.ConfigManager.OnChange(func(c *config.Config) {
				registry.Reload(context.Background(), c.ToProviderRegistryConfig())
				cfg.Logger.Info("provider registry reloaded from config")
			})
		}
	}

	services, err := buildServices(appCfg, registry, cfg.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		services:  services,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     corsHandler(appCfg.Server.CORSOrigins).Handler(s.withServices(mux)),
		ReadTimeout: 5 * time.Minute,
		// Extraction of a batch, retries included, runs inside the request.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildServices wires the extraction and comparison pipeline onto the
// registry's default provider.
func buildServices(cfg *config.Config, registry *providers.Registry, logger *slog.Logger) (*svcctx.Services, error) {
	store := fields.NewStore(cfg.Fields.File, logger)
	recorder := llmcall.NewRecorder(llmcall.DefaultCapacity, logger)
	m := metrics.New(nil)

	resolver := prompts.NewResolver(logger)
	extraction.RegisterPrompts(resolver)
	comparison.RegisterPrompts(resolver)

	client := registry.Client()
	temperature := cfg.Defaults.Temperature

	extractor, err := extract.New(extract.Config{
		Capability:  providers.Capability{Client: client, Policy: cfg.Extraction.Policy()},
		Fields:      store,
		Temperature: temperature,
		Timeout:     cfg.Timeout(),
		Metrics:     m,
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	comparer, err := compare.New(compare.Config{
		Capability:  providers.Capability{Client: client, Policy: cfg.Comparison.Policy()},
		Fields:      store,
		Temperature: temperature,
		Timeout:     cfg.Timeout(),
		Metrics:     m,
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comparer: %w", err)
	}

	return &svcctx.Services{
		Registry:    registry,
		Coordinator: batch.NewCoordinator(extractor, cfg.Extraction.Attempts, logger),
		Comparer:    comparer,
		Fields:      store,
		Recorder:    recorder,
		Metrics:     m,
		Prompts:     resolver,
		Logger:      logger,
	}, nil
}

// corsHandler answers with the request's own origin when origins contains
// "*": a literal wildcard is not valid alongside credentials.
func corsHandler(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts)
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.services.Fields.Watch()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"addr", s.httpServer.Addr,
			"provider", s.registry.DefaultName(),
			"fields", s.services.Fields.Catalog().Len())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root HTTP handler, CORS and services included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Services returns the wired services.
func (s *Server) Services() *svcctx.Services {
	return s.services
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures an LLM provider is available.
// Returns 503 Service Unavailable until the default provider is registered.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.registry.HasDefault() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"no LLM provider configured"}`))
			return
		}
		next(w, r)
	}
}
