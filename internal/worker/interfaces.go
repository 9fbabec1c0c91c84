package worker

import (
	"context"

	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Refresher is the part of service.IntelligenceService the worker needs.
type Refresher interface {
	Refresh(ctx context.Context, familyID int64) (*model.FraudFamily, error)
}
