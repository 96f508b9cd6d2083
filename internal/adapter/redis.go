package adapter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient defines the Redis operations used by the lock coordinator and the no-hit cache
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) error

	// MGet returns the values for keys in order; missing keys are nil
	MGet(ctx context.Context, keys ...string) ([]interface{}, error)

	// SetAllWithTTL writes every key with the same value and ttl in one MULTI/EXEC transaction
	SetAllWithTTL(ctx context.Context, keys []string, value string, ttl time.Duration) error

	// SetNX sets key to value with ttl only when it does not exist
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Eval runs a Lua script
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)

	// Close closes the Redis connection
	Close() error
}

// RealRedisClient wraps the go-redis client
type RealRedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) RedisClient {
	return &RealRedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *RealRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RealRedisClient) MGet(ctx context.Context, keys ...string) ([]interface{}, error) {
	return r.client.MGet(ctx, keys...).Result()
}

func (r *RealRedisClient) SetAllWithTTL(ctx context.Context, keys []string, value string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, value, ttl)
		}
		return nil
	})
	return err
}

func (r *RealRedisClient) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *RealRedisClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return r.client.Eval(ctx, script, keys, args...).Result()
}

func (r *RealRedisClient) Close() error {
	return r.client.Close()
}
