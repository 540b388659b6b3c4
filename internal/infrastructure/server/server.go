package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/quantboard/telemetry/internal/api/http"
	"github.com/quantboard/telemetry/internal/api/middleware"
	"github.com/quantboard/telemetry/internal/api/ws"
	"github.com/quantboard/telemetry/internal/correlate"
	"github.com/quantboard/telemetry/internal/infrastructure/config"
	"github.com/quantboard/telemetry/internal/infrastructure/logging"
	"github.com/quantboard/telemetry/internal/infrastructure/monitoring"
	"github.com/quantboard/telemetry/internal/infrastructure/tracing"
	"github.com/quantboard/telemetry/internal/ingest"
	"github.com/quantboard/telemetry/internal/materialize"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	provider *tracing.Provider
	deduper  *ingest.Deduper
	feed     *ws.Feed
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing telemetry server",
		zap.String("port", cfg.Server.Port),
		zap.String("otlp_endpoint", cfg.Tracing.OTLPEndpoint),
		zap.Bool("tracing_enabled", cfg.Tracing.Enabled),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// Initialize span export
	provider, err := tracing.Setup(context.Background(), tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "0.3.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Enabled:        cfg.Tracing.Enabled,
		Sampling:       cfg.Tracing.Sampling,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize span export: %w", err)
	}
	tracer := provider.Tracer("browser-telemetry")

	// Initialize batch dedup cache
	deduper, err := ingest.NewDeduper(cfg.Ingest.DedupTTL)
	if err != nil {
		shutdownErr := provider.Shutdown(context.Background())
		if shutdownErr != nil {
			logger.Warn("Failed to shut down span export", zap.Error(shutdownErr))
		}
		return nil, fmt.Errorf("failed to initialize dedup cache: %w", err)
	}

	// Live span feed and the materialization pipeline
	feed := ws.NewFeed()
	materializer := materialize.New(tracer, logger.Logger, materialize.WithFeed(feed))

	// Create handlers
	ingestHandler := ingest.NewHandler(materializer, deduper, metrics, logger.Logger)
	wsHandler := ws.NewHandler(feed, metrics, logger.Logger)
	statusHandlers := apihttp.NewHandlers(feed, cfg.Tracing.Enabled)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(correlate.Middleware())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	router.GET("/", statusHandlers.Root)
	router.GET("/health", statusHandlers.Health)

	// Telemetry ingestion
	router.POST("/telemetry/browser", ingestHandler.IngestBrowserTelemetry)

	// WebSocket span feed
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		provider: provider,
		deduper:  deduper,
		feed:     feed,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the configured engine, for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.feed.Close()
	s.deduper.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to flush spans", zap.Error(err))
		return fmt.Errorf("failed to flush spans: %w", err)
	}
	s.logger.Info("Span export flushed")

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
