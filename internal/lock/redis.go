package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix  = "dna:lock:"
	defaultRetryEvery = 50 * time.Millisecond
)

// compare-and-delete so an expired holder cannot release a successor's lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	// TTL bounds how long a crashed holder blocks others.
	TTL        time.Duration
	RetryEvery time.Duration
	KeyPrefix  string
}

// RedisLocker is a Locker shared by every replica pointed at the same redis.
type RedisLocker struct {
	client redis.Cmdable
	cfg    RedisConfig
}

func NewRedisLocker(client redis.Cmdable, cfg RedisConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = defaultRetryEvery
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &RedisLocker{client: client, cfg: cfg}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	k := l.cfg.KeyPrefix + key

	ticker := time.NewTicker(l.cfg.RetryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("acquiring lock %s: %w", k, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{k}, token).Err(); err != nil {
				slog.WarnContext(ctx, "releasing redis lock failed", "key", k, "error", err)
			}
		})
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
