package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/queue"
	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
	"crimescape.app/dna/internal/worker"
)

func recompute(id string, familyID int64, attempt int) queue.Message {
	return queue.Message{
		ID:       id,
		TaskType: queue.TaskTypeFamilyRecompute,
		FamilyID: familyID,
		Attempt:  attempt,
		Reason:   queue.ReasonSynthesisFailed,
		TraceID:  "4bf92f3577b34da6a3ce929d0e0e4736",
	}
}

var _ = Describe("Worker", func() {
	var (
		ctx       context.Context
		consumer  *mockConsumer
		refresher *mockRefresher
		w         *worker.Worker
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		refresher = &mockRefresher{}
		w = worker.New(consumer, refresher, worker.Config{MaxAttempts: 3})
	})

	Describe("Handle", func() {
		It("refreshes the family and acks", func() {
			Expect(w.Handle(ctx, recompute("1-0", 77, 1))).To(Succeed())

			Expect(refresher.called()).To(Equal([]int64{77}))
			Expect(consumer.ackedIDs()).To(Equal([]string{"1-0"}))
			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(BeEmpty())
		})

		It("requeues a failed refresh without acking", func() {
			refresher.refreshFn = func(context.Context, int64) (*model.FraudFamily, error) {
				return nil, &service.PersistenceError{Op: "saving intelligence", Err: errors.New("deadlock detected")}
			}

			err := w.Handle(ctx, recompute("2-0", 5, 1))

			Expect(err).To(HaveOccurred())
			Expect(consumer.ackedIDs()).To(BeEmpty())
			Expect(consumer.requeued).To(HaveLen(1))
			Expect(consumer.requeued[0].msg.ID).To(Equal("2-0"))
			Expect(consumer.requeued[0].errMsg).To(ContainSubstring("deadlock detected"))
			Expect(consumer.dlq).To(BeEmpty())
		})

		It("sends to the DLQ once attempts run out", func() {
			refresher.refreshFn = func(context.Context, int64) (*model.FraudFamily, error) {
				return nil, errors.New("redis lock timeout")
			}

			Expect(w.Handle(ctx, recompute("3-0", 5, 3))).NotTo(Succeed())

			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(HaveLen(1))
			Expect(consumer.dlq[0].errMsg).To(ContainSubstring("redis lock timeout"))
		})

		It("sends unknown families straight to the DLQ", func() {
			refresher.refreshFn = func(context.Context, int64) (*model.FraudFamily, error) {
				return nil, &service.PersistenceError{Op: "getting family", Err: store.ErrNotFound}
			}

			Expect(w.Handle(ctx, recompute("4-0", 404, 1))).NotTo(Succeed())

			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(HaveLen(1))
		})

		It("treats a panic as a failed attempt", func() {
			refresher.refreshFn = func(context.Context, int64) (*model.FraudFamily, error) {
				panic("nil map")
			}

			err := w.Handle(ctx, recompute("5-0", 9, 1))

			Expect(err).To(MatchError(ContainSubstring("panic: nil map")))
			Expect(consumer.requeued).To(HaveLen(1))
		})

		It("acks and skips unknown task types", func() {
			msg := recompute("6-0", 9, 1)
			msg.TaskType = queue.TaskType("reindex")

			Expect(w.Handle(ctx, msg)).To(Succeed())

			Expect(refresher.called()).To(BeEmpty())
			Expect(consumer.ackedIDs()).To(Equal([]string{"6-0"}))
		})
	})

	Describe("Run", func() {
		It("drains batches until stopped", func() {
			consumer.batches = [][]queue.Message{
				{recompute("1-0", 1, 1), recompute("1-1", 2, 1)},
				{recompute("2-0", 3, 1)},
			}

			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()

			Eventually(consumer.ackedIDs).Should(Equal([]string{"1-0", "1-1", "2-0"}))
			w.Stop()
			Expect(<-done).To(Succeed())
			Expect(refresher.called()).To(Equal([]int64{1, 2, 3}))
		})

		It("returns when the context is cancelled", func() {
			consumer.readErr = errors.New("connection refused")
			w = worker.New(consumer, refresher, worker.Config{ErrorBackoff: time.Hour})
			runCtx, cancel := context.WithCancel(ctx)

			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()
			cancel()

			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
