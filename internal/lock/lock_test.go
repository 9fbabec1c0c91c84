package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var (
	_ Locker = (*KeyedMutex)(nil)
	_ Locker = (*RedisLocker)(nil)
	_ Locker = Noop{}
)

// exclusive checks that only one of n goroutines is inside the critical
// section for key at a time.
func exclusive(l Locker, key string, n int) int32 {
	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			Expect(err).NotTo(HaveOccurred())
			cur := inside.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	return peak.Load()
}

var _ = Describe("KeyedMutex", func() {
	var m *KeyedMutex

	BeforeEach(func() {
		m = NewKeyedMutex()
	})

	It("admits one holder per key", func() {
		Expect(exclusive(m, "Job Scam", 8)).To(Equal(int32(1)))
		Expect(m.held()).To(Equal(0))
	})

	It("does not block other keys", func() {
		unlock, err := m.Lock(context.Background(), "Job Scam")
		Expect(err).NotTo(HaveOccurred())
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		other, err := m.Lock(ctx, "Courier Fraud")
		Expect(err).NotTo(HaveOccurred())
		other()
	})

	It("gives up when the context ends", func() {
		unlock, err := m.Lock(context.Background(), "Job Scam")
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = m.Lock(ctx, "Job Scam")
		Expect(err).To(MatchError(ErrNotAcquired))
		Expect(err).To(MatchError(context.DeadlineExceeded))

		unlock()
		unlock()
		Expect(m.held()).To(Equal(0))
	})
})

var _ = Describe("RedisLocker", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		l      *RedisLocker
	)

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)
		l = NewRedisLocker(client, RedisConfig{TTL: 5 * time.Second, RetryEvery: time.Millisecond})
	})

	It("stores a token with a ttl and removes it on unlock", func() {
		unlock, err := l.Lock(context.Background(), "Banking Scam")
		Expect(err).NotTo(HaveOccurred())

		Expect(mr.Exists("dna:lock:Banking Scam")).To(BeTrue())
		Expect(mr.TTL("dna:lock:Banking Scam")).To(Equal(5 * time.Second))

		unlock()
		Expect(mr.Exists("dna:lock:Banking Scam")).To(BeFalse())
	})

	It("admits one holder per key", func() {
		Expect(exclusive(l, "Banking Scam", 6)).To(Equal(int32(1)))
	})

	It("times out while another holder has the key", func() {
		unlock, err := l.Lock(context.Background(), "Phishing")
		Expect(err).NotTo(HaveOccurred())
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = l.Lock(ctx, "Phishing")
		Expect(err).To(MatchError(ErrNotAcquired))
	})

	It("does not release a lock taken over after expiry", func() {
		stale, err := l.Lock(context.Background(), "Phishing")
		Expect(err).NotTo(HaveOccurred())

		mr.FastForward(6 * time.Second)
		fresh, err := l.Lock(context.Background(), "Phishing")
		Expect(err).NotTo(HaveOccurred())

		stale()
		Expect(mr.Exists("dna:lock:Phishing")).To(BeTrue())

		fresh()
		Expect(mr.Exists("dna:lock:Phishing")).To(BeFalse())
	})

	It("reports redis errors", func() {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		DeferCleanup(down.Close)
		_, err := NewRedisLocker(down, RedisConfig{}).Lock(context.Background(), "Phishing")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(ErrNotAcquired))
	})
})

var _ = Describe("Noop", func() {
	It("never blocks", func() {
		a, err := Noop{}.Lock(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		b, err := Noop{}.Lock(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		a()
		b()
	})
})

var _ = Describe("Locker", func() {
	DescribeTable("hands out a release that tolerates repeated calls",
		func(l Locker) {
			unlock, err := l.Lock(context.Background(), "Banking Scam")
			Expect(err).NotTo(HaveOccurred())
			unlock()
			unlock()

			again, err := l.Lock(context.Background(), "Banking Scam")
			Expect(err).NotTo(HaveOccurred())
			again()
		},
		Entry("keyed mutex", Locker(NewKeyedMutex())),
		Entry("noop", Locker(Noop{})),
	)
})
