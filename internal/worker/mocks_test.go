package worker_test

import (
	"context"
	"sync"

	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/queue"
)

type requeued struct {
	msg    queue.Message
	errMsg string
}

type mockConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	readErr  error
	acked    []string
	requeued []requeued
	dlq      []requeued
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if len(m.batches) == 0 {
		return []queue.Message{}, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, requeued{msg: msg, errMsg: errMsg})
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, requeued{msg: msg, errMsg: errMsg})
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

type mockRefresher struct {
	mu        sync.Mutex
	refreshFn func(ctx context.Context, familyID int64) (*model.FraudFamily, error)
	calls     []int64
}

func (m *mockRefresher) Refresh(ctx context.Context, familyID int64) (*model.FraudFamily, error) {
	m.mu.Lock()
	m.calls = append(m.calls, familyID)
	m.mu.Unlock()
	if m.refreshFn != nil {
		return m.refreshFn(ctx, familyID)
	}
	return &model.FraudFamily{ID: familyID, Intelligence: model.Intelligence{Risk: model.RiskLow}}, nil
}

func (m *mockRefresher) called() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.calls...)
}
