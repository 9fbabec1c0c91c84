package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crimescape.app/dna/common/id"
	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/common/otel"
	"crimescape.app/dna/core/config"
	"crimescape.app/dna/internal/app"
	"crimescape.app/dna/internal/queue"
	"crimescape.app/dna/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "dna worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"max_attempts", cfg.Pipeline.MaxAttempts)

	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	slog.InfoContext(ctx, "database and redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, a.Redis, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, a.Services.Intelligence(), worker.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(a.Redis, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.Handle)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(runCtx)
	}()
	go reclaimer.Run(runCtx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		slog.ErrorContext(ctx, "worker exited unexpectedly", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		reclaimer.Stop()
		w.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
		cancelRun()
	case <-done:
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___  _  _   _    __      _____  ___ _  _____ ___
|   \| \| | /_\   \ \    / / _ \| _ \ |/ / __| _ \
| |) | .' |/ _ \   \ \/\/ / (_) |   / ' <| _||   /
|___/|_|\_/_/ \_\   \_/\_/ \___/|_|_\_|\_\___|_|_\
`
