package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/gosight/gosight/tracker/internal/config"
)

// Redis keeps pending events in a list and markers in plain keys, all under
// a common prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(cfg config.RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisClient(rdb, cfg.Prefix)
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, prefix string) *Redis {
	return &Redis{client: rdb, prefix: prefix}
}

func (r *Redis) eventsKey() string { return r.prefix + "pending_events" }

func (r *Redis) Store(ctx context.Context, events []json.RawMessage) error {
	if len(events) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, e := range events {
		pipe.RPush(ctx, r.eventsKey(), string(e))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Retrieve(ctx context.Context) ([]json.RawMessage, error) {
	vals, err := r.client.LRange(ctx, r.eventsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.eventsKey()).Err()
}

func (r *Redis) Size(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.eventsKey()).Result()
	return int(n), err
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
