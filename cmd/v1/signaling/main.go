package main

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"k8s.io/utils/clock"

	"github.com/roomloop/signaling/internal/v1/codes"
	"github.com/roomloop/signaling/internal/v1/config"
	"github.com/roomloop/signaling/internal/v1/dispatch"
	"github.com/roomloop/signaling/internal/v1/health"
	"github.com/roomloop/signaling/internal/v1/logging"
	"github.com/roomloop/signaling/internal/v1/middleware"
	"github.com/roomloop/signaling/internal/v1/ratelimit"
	"github.com/roomloop/signaling/internal/v1/sessions"
	"github.com/roomloop/signaling/internal/v1/store"
	"github.com/roomloop/signaling/internal/v1/tracing"
	"github.com/roomloop/signaling/internal/v1/transport"
)

//go:embed index.html
var indexPage []byte

func main() {
	// Load .env file for local development.
	// Try multiple paths to handle different ways of running the app
	envPaths := []string{".env", "../../../.env", "../../.env"}
	var envLoaded bool

	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		slog.Warn("No .env file found in any expected location, relying on environment variables")
	}

	// Validate environment variables before starting the server
	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.DevelopmentMode {
		slog.Info("Running in DEVELOPMENT MODE")
	}

	if err := logging.Initialize(cfg.DevelopmentMode); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	// --- Tracing (optional) ---
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(context.Background(), "signaling", cfg.OTLPEndpoint)
		if err != nil {
			slog.Error("Failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("Error shutting down tracer provider", "error", err)
			}
		}()
		slog.Info("✅ Tracing initialized", "endpoint", cfg.OTLPEndpoint)
	}

	// --- Rate Limiter ---
	rateLimiter, err := ratelimit.NewRateLimiter(cfg)
	if err != nil {
		slog.Error("Failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	// --- Core wiring ---
	// Hub and dispatcher reference each other, so the hub is bound after both
	// exist.
	roomStore := store.NewStore(clock.RealClock{})
	registry := sessions.NewRegistry()
	allowedOrigins := cfg.AllowedOriginList()

	hub := transport.NewHub(rateLimiter, allowedOrigins)
	dispatcher := dispatch.NewDispatcher(roomStore, registry, hub, clock.RealClock{})
	hub.Bind(dispatcher)

	generator := codes.NewGenerator(roomStore)

	// --- Set up Server ---
	router := gin.Default()

	// Cors
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	router.Use(cors.New(corsConfig))

	// Error handling
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("signaling"))
	}

	// Routing. The client shell is a single page; any unmatched path is a
	// room link and serves the same page.
	serveShell := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	}
	router.GET("/", serveShell)
	router.NoRoute(serveShell)

	router.GET("/ws", hub.ServeWs)
	router.POST("/create_code", rateLimiter.CreateCodeMiddleware(), transport.CreateCodeHandler(generator))

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoints
	healthHandler := health.NewHandler(roomStore)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	// Start the server.
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		slog.Info("Signaling server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to run server", "error", err)
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close all active WebSocket connections gracefully
	if err := hub.Shutdown(ctx); err != nil {
		slog.Error("Error during Hub shutdown:", "error", err)
	}

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown:", "error", err)
	}

	slog.Info("Server exiting")
}
