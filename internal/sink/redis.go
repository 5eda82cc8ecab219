package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conduit-lang/marvelous/internal/config"
)

// RedisSink stores each record as JSON under prefix+type:id and indexes the
// ids of every type in the set prefix+type.
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSink connects to the configured server and verifies it answers.
func NewRedisSink(ctx context.Context, cfg config.RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis sink: %w", err)
	}
	return NewRedisSinkWithClient(client, cfg), nil
}

// NewRedisSinkWithClient creates a sink with an existing client
func NewRedisSinkWithClient(client *redis.Client, cfg config.RedisConfig) *RedisSink {
	return &RedisSink{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// Write stores every record in one transaction. A zero TTL keeps records
// forever.
func (r *RedisSink) Write(ctx context.Context, records []Record) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.Set(ctx, r.prefix+rec.Key(), rec.Data, r.ttl)
			pipe.SAdd(ctx, r.prefix+string(rec.Type), rec.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisSink) Close() error {
	return r.client.Close()
}
