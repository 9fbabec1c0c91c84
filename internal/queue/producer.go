package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type RecomputeMessage struct {
	FamilyID int64
	Reason   string
	TraceID  string
	Attempt  int
}

type Producer interface {
	EnqueueRecompute(ctx context.Context, msg RecomputeMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) EnqueueRecompute(ctx context.Context, msg RecomputeMessage) error {
	values := messageValues(Message{
		TaskType: TaskTypeFamilyRecompute,
		FamilyID: msg.FamilyID,
		Reason:   msg.Reason,
		TraceID:  msg.TraceID,
	}, max(msg.Attempt, 1))

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue recompute: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued family recompute",
		"family_id", msg.FamilyID,
		"reason", msg.Reason,
		"stream_id", id)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
