package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// RedisReclaimer periodically claims messages left pending by a worker that
// died between XREADGROUP and XACK, and hands them to the processor again.
type RedisReclaimer struct {
	client    *redis.Client
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is done.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dna.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"stream", r.cfg.Stream,
		"group", r.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if _, err := r.reclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// reclaimOnce returns how many messages it claimed.
func (r *RedisReclaimer) reclaimOnce(ctx context.Context) (int, error) {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream,
		Group:  r.cfg.Group,
		Idle:   r.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "found stale pending messages", "count", len(pending))

	claimed := 0
	for _, p := range pending {
		ok, err := r.reclaimMessage(ctx, p)
		if err != nil {
			slog.ErrorContext(ctx, "failed to reclaim message",
				"error", err,
				"message_id", p.ID,
				"original_consumer", p.Consumer,
				"idle_time", p.Idle)
		}
		if ok {
			claimed++
		}
	}
	return claimed, nil
}

func (r *RedisReclaimer) reclaimMessage(ctx context.Context, pending redis.XPendingExt) (bool, error) {
	msgID := pending.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	slog.InfoContext(ctx, "reclaiming stale message",
		"original_consumer", pending.Consumer,
		"idle_time", pending.Idle,
		"retry_count", pending.RetryCount)

	messages, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Messages: []string{pending.ID},
	}).Result()
	if err != nil {
		return false, fmt.Errorf("xclaim: %w", err)
	}
	if len(messages) == 0 {
		slog.DebugContext(ctx, "message already reclaimed by another worker")
		return false, nil
	}

	raw := messages[0]
	parsed, err := queue.ParseMessage(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse reclaimed message, acknowledging to prevent loop",
			"error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw})
		return true, nil
	}

	if err := r.processor(ctx, parsed); err != nil {
		return true, fmt.Errorf("processing reclaimed message: %w", err)
	}
	return true, nil
}
