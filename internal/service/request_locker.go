package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pesio-ai/be-md-governance/internal/pkg/logger"
)

// RequestLocker serializes mutations of a single request. The returned unlock
// function must be called exactly once.
type RequestLocker interface {
	Lock(ctx context.Context, requestID string) (unlock func(), err error)
}

// ── In-process locker ────────────────────────────────────────────────────────

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// LocalLocker holds one mutex per request id, released from the map once no
// goroutine holds or waits for it.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*lockEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, requestID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[requestID]
	if !ok {
		e = &lockEntry{}
		l.entries[requestID] = e
	}
	e.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() { l.release(requestID, e) }, nil
	case <-ctx.Done():
		// The goroutine still takes the mutex; hand it straight back.
		go func() {
			<-acquired
			l.release(requestID, e)
		}()
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(requestID string, e *lockEntry) {
	e.mu.Unlock()
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, requestID)
	}
	l.mu.Unlock()
}

// ── Redis locker ─────────────────────────────────────────────────────────────

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed per-request lock for multi-replica
// deployments. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retry     time.Duration
	keyPrefix string
	log       *logger.Logger
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retry:     25 * time.Millisecond,
		keyPrefix: "mdg:lock:request:",
		log:       log.Component("redis_locker"),
	}
}

func (l *RedisLocker) key(requestID string) string {
	return l.keyPrefix + requestID
}

func (l *RedisLocker) Lock(ctx context.Context, requestID string) (func(), error) {
	key := l.key(requestID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// release deletes key only while it still holds token. A failed release is
// logged; the TTL frees the lock eventually.
func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("lock_key", key).Msg("Failed to release request lock")
	}
}
