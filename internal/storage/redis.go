package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "taktsiv:"

// RedisDriver stores each document under one redis key.
type RedisDriver struct {
	client *redis.Client
}

func NewRedisDriver(addr, password string, db int) (*RedisDriver, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisDriver{client: client}, nil
}

func (d *RedisDriver) Close() error {
	return d.client.Close()
}

func (d *RedisDriver) Load(ctx context.Context, key string) ([]byte, error) {
	body, err := d.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return body, nil
}

func (d *RedisDriver) Save(ctx context.Context, key string, body []byte) error {
	if err := d.client.Set(ctx, redisKeyPrefix+key, body, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SaveMulti writes all documents in one transactional pipeline.
func (d *RedisDriver) SaveMulti(ctx context.Context, docs map[string][]byte) error {
	_, err := d.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, body := range docs {
			pipe.Set(ctx, redisKeyPrefix+key, body, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx pipeline: %w", err)
	}
	return nil
}
