package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crimescape.app/dna/common/logger"
)

type ConsumerConfig struct {
	Stream       string        // Redis stream name
	Group        string        // Redis consumer group name
	Consumer     string        // Redis consumer name
	DLQStream    string        // Dead letter stream for messages out of attempts
	BatchSize    int64         // Messages per XREADGROUP
	Block        time.Duration // How long XREADGROUP blocks when the stream is empty
	RequeueDelay time.Duration // Pause before re-adding a failed message
}

type Message struct {
	ID        string
	TaskType  TaskType
	FamilyID  int64
	Reason    string
	Attempt   int
	TraceID   string
	LastError string
	Raw       redis.XMessage
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(ctx context.Context, client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}

	c := &RedisConsumer{client: client, cfg: cfg}
	if err := c.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *RedisConsumer) Config() ConsumerConfig {
	return c.cfg
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start from "0" so a recreated group sees messages already in the stream.
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read returns new messages for this consumer. Messages that fail to parse are
// acknowledged and dropped so they cannot wedge the group.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "dna.queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// ">" is never-delivered messages only; stale pending ones belong to the reclaimer
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	messages := []Message{}
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			msg, err := ParseMessage(raw)
			if err != nil {
				slog.ErrorContext(ctx, "dropping unparseable message",
					"error", err,
					"raw_message_id", raw.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: raw.ID, Raw: raw})
				continue
			}
			messages = append(messages, msg)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	return nil
}

// Requeue acks msg and appends a copy with the attempt counter bumped.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for requeue: %w", err)
	}

	values := messageValues(msg, msg.Attempt+1)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RequeueDelay):
		}
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "message requeued for retry",
		"family_id", msg.FamilyID,
		"next_attempt", msg.Attempt+1,
		"reason", errMsg)
	return nil
}

func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := messageValues(msg, msg.Attempt)
	values["error"] = errMsg

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "message sent to DLQ",
		"family_id", msg.FamilyID,
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func ParseMessage(raw redis.XMessage) (Message, error) {
	taskType, err := parseOptionalString(raw.Values, "task_type")
	if err != nil {
		return Message{}, err
	}
	if taskType == "" {
		return Message{}, fmt.Errorf("missing task_type")
	}

	attempt, err := parseOptionalInt(raw.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt <= 0 {
		attempt = 1
	}

	msg := Message{
		ID:       raw.ID,
		TaskType: TaskType(taskType),
		Attempt:  attempt,
		Raw:      raw,
	}
	if msg.Reason, err = parseOptionalString(raw.Values, "reason"); err != nil {
		return Message{}, err
	}
	if msg.TraceID, err = parseOptionalString(raw.Values, "trace_id"); err != nil {
		return Message{}, err
	}
	if msg.LastError, err = parseOptionalString(raw.Values, "last_error"); err != nil {
		return Message{}, err
	}

	switch msg.TaskType {
	case TaskTypeFamilyRecompute:
		familyID, err := parseInt64(raw.Values, "family_id")
		if err != nil {
			return Message{}, err
		}
		if familyID <= 0 {
			return Message{}, fmt.Errorf("invalid family_id %d", familyID)
		}
		msg.FamilyID = familyID
	default:
		return Message{}, fmt.Errorf("unknown task_type %q", taskType)
	}

	return msg, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}

func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"task_type": string(msg.TaskType),
		"family_id": msg.FamilyID,
		"attempt":   attempt,
	}
	if msg.Reason != "" {
		values["reason"] = msg.Reason
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}
