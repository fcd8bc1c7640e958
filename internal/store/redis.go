package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"appforge/internal/common/config"
	commonerrors "appforge/internal/common/errors"
	"appforge/internal/models"
)

const redisKeyPrefix = "submission:"

// RedisStore keeps submissions as JSON values under a shared key prefix.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Tests use it with
// miniredis.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Put(ctx context.Context, sub *models.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return commonerrors.NewStoreError(err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+sub.Key(), data, 0).Err(); err != nil {
		return commonerrors.NewStoreError(err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*models.Submission, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, commonerrors.NewStoreError(err)
	}

	var sub models.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, commonerrors.NewStoreError(err)
	}
	return &sub, nil
}

func (r *RedisStore) List(ctx context.Context) ([]*models.Submission, error) {
	var out []*models.Submission
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// Key expired between scan and fetch.
			continue
		}
		if err != nil {
			return nil, commonerrors.NewStoreError(err)
		}
		var sub models.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, commonerrors.NewStoreError(err)
		}
		out = append(out, &sub)
	}
	if err := iter.Err(); err != nil {
		return nil, commonerrors.NewStoreError(err)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
