package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"crimescape.app/dna/common/id"
	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/common/otel"
	"crimescape.app/dna/core/config"
	"crimescape.app/dna/internal/app"
	"crimescape.app/dna/internal/http/middleware"
	httprouter "crimescape.app/dna/internal/http/router"
	"crimescape.app/dna/internal/service"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "dna server starting",
		"env", cfg.Env,
		"lock_mode", cfg.Engine.LockMode,
		"rules_file", cfg.Engine.RulesFile)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	if a.Redis == nil {
		slog.WarnContext(ctx, "REDIS_URL not set, failed intelligence refreshes will not be retried")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, a.Services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.BodyLimit(cfg.Engine.BodyLimit))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		TraceHeader: cfg.Pipeline.TraceHeaderName,
	})

	return router
}

const banner = `
 ___  _  _   _     ___ ___ _____   _____ ___
|   \| \| | /_\   / __| __| _ \ \ / / __| _ \
| |) | .' |/ _ \  \__ \ _||   /\ V /| _||   /
|___/|_|\_/_/ \_\ |___/___|_|_\ \_/ |___|_|_\
`
