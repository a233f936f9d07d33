package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

var _ Watcher = (*RedisBackend)(nil)

// redis key patterns
const (
	// usage:{scope}:{principal} - JSON encoded Record
	keyUsageRecord = "usage:%s"

	// usage:changed:{scope} - pub/sub channel, payload is the record key
	channelUsageChanged = "usage:changed:%s"

	// longest a monthly counter stays current
	monthSpan = 31 * 24 * time.Hour

	// slack past the lockout or month before a record expires
	recordTTLMargin = 10 * 24 * time.Hour
)

// stores records as JSON values and announces saves on a per-scope channel
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*RedisBackend)

// sizes record expiry for a demo lockout other than the default
func WithRedisLockout(lockout time.Duration) RedisOption {
	return func(b *RedisBackend) {
		b.ttl = recordTTL(lockout)
	}
}

// records outlive both the demo lockout and the month their counters
// belong to, then expire on their own
func recordTTL(lockout time.Duration) time.Duration {
	if lockout <= 0 {
		lockout = DefaultDemoLockout
	}

	return max(lockout, monthSpan) + recordTTLMargin
}

func newRedisBackend(client *redis.Client, opts []RedisOption) *RedisBackend {
	b := &RedisBackend{client: client, ttl: recordTTL(DefaultDemoLockout)}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// connects to redis and verifies the connection
func NewRedisBackend(redisURL string, opts ...RedisOption) (*RedisBackend, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	// test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	b := newRedisBackend(client, opts)
	logger.Info("connected to redis", "record_ttl", b.ttl)

	return b, nil
}

// wraps an existing client
func NewRedisBackendFromClient(client *redis.Client, opts ...RedisOption) *RedisBackend {
	return newRedisBackend(client, opts)
}

// how long a saved record lives without another save
func (b *RedisBackend) RecordTTL() time.Duration {
	return b.ttl
}

// underlying client, shared with other redis-backed gateway components
func (b *RedisBackend) Client() *redis.Client {
	return b.client
}

// closes the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) Load(ctx context.Context, key string) (*Record, error) {
	data, err := b.client.Get(ctx, fmt.Sprintf(keyUsageRecord, key)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get usage record from redis: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode usage record: %w", err)
	}

	return &rec, nil
}

func (b *RedisBackend) Save(ctx context.Context, key string, rec *Record) error {
	if rec == nil {
		return errors.New("usage record is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode usage record: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(keyUsageRecord, key), data, b.ttl)
	pipe.Publish(ctx, fmt.Sprintf(channelUsageChanged, ScopeOf(key)), key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save usage record in redis: %w", err)
	}

	return nil
}

// subscribes to saves made to scope by any process
func (b *RedisBackend) Watch(ctx context.Context, scope string) (<-chan struct{}, error) {
	pubsub := b.client.Subscribe(ctx, fmt.Sprintf(channelUsageChanged, scope))

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, fmt.Errorf("failed to subscribe to usage changes: %w", err)
	}

	ch := make(chan struct{}, 1)
	msgs := pubsub.Channel()

	go func() {
		defer close(ch)
		defer pubsub.Close() //nolint:errcheck // best-effort cleanup

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}

				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
