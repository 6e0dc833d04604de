package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis connection defaults.
const (
	redisDialTimeout  = 5 * time.Second
	redisReadTimeout  = 3 * time.Second
	redisWriteTimeout = 3 * time.Second
	redisPoolSize     = 10
)

// ErrRedisConnection is returned by NewRedisClient when Redis is unreachable.
var ErrRedisConnection = errors.New("cache: redis connection failed")

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     redisPoolSize,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisReadTimeout,
		WriteTimeout: redisWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}
	return client, nil
}

// redisEnvelope is the value stored under each key.
type redisEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// RedisBackend stores records as JSON strings whose Redis TTL matches
// expires_at, under keys of the form prefix + key.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBackend creates a backend that namespaces keys with prefix
// (e.g. "racketrank:geocode:").
func NewRedisBackend(client redis.Cmdable, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// Load implements Backend.
func (r *RedisBackend) Load(ctx context.Context, key string, _ time.Time) (Record, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	var env redisEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return Record{Payload: env.Payload, UpdatedAt: env.UpdatedAt, ExpiresAt: env.ExpiresAt}, true, nil
}

// Store implements Backend.
func (r *RedisBackend) Store(ctx context.Context, key string, rec Record) error {
	ttl := rec.ExpiresAt.Sub(rec.UpdatedAt)
	if ttl <= 0 {
		// Already expired; the existing key ages out on its own.
		return nil
	}

	data, err := json.Marshal(redisEnvelope{
		Payload:   rec.Payload,
		UpdatedAt: rec.UpdatedAt,
		ExpiresAt: rec.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}
