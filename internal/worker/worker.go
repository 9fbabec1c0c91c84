package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/internal/queue"
	"crimescape.app/dna/internal/store"
)

type Config struct {
	MaxAttempts int
	// ErrorBackoff is the pause after a failed stream read.
	ErrorBackoff time.Duration
}

// Worker drains the recompute stream, rebuilding the intelligence of each
// family named in a message.
type Worker struct {
	consumer  Consumer
	refresher Refresher
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, refresher Refresher, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		refresher: refresher,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "dna.worker"})
	slog.InfoContext(ctx, "worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-w.stopCh:
				case <-time.After(w.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// Stop must only be called while Run is running.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.Handle(ctx, msg)
	}
	return nil
}

// Handle processes msg and, on failure, requeues it or moves it to the DLQ.
// It matches queue.MessageProcessor so the reclaimer can reuse it.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	err := w.processMessageSafe(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"family_id", msg.FamilyID)
		w.handleFailedMessage(ctx, msg, err)
	}
	return err
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"family_id", msg.FamilyID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// errPermanent marks failures that a retry cannot fix.
var errPermanent = errors.New("permanent failure")

// ProcessMessage refreshes one family and acks the message. A failed refresh
// returns the error without acking.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.family_recompute")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		FamilyID:  &msg.FamilyID,
		MessageID: &msg.ID,
	})
	span.SetAttributes(
		attribute.Int64("dna.family_id", msg.FamilyID),
		attribute.Int("dna.attempt", msg.Attempt),
	)

	if msg.TaskType != queue.TaskTypeFamilyRecompute {
		slog.WarnContext(ctx, "ignoring message with unknown task type", "task_type", msg.TaskType)
		w.ack(ctx, msg)
		return nil
	}

	slog.InfoContext(ctx, "recomputing family intelligence",
		"attempt", msg.Attempt,
		"reason", msg.Reason)

	start := time.Now()
	family, err := w.refresher.Refresh(ctx, msg.FamilyID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: family %d: %w", errPermanent, msg.FamilyID, err)
		}
		return fmt.Errorf("refreshing family %d: %w", msg.FamilyID, err)
	}

	w.ack(ctx, msg)
	slog.InfoContext(ctx, "family intelligence recomputed",
		"risk", family.Risk,
		"cases", len(family.Cases),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Left pending; the reclaimer will redeliver it and a refresh is
		// safe to repeat.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts || errors.Is(err, errPermanent) {
		slog.ErrorContext(ctx, "giving up on message, sending to DLQ",
			"message_id", msg.ID,
			"family_id", msg.FamilyID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"family_id", msg.FamilyID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
