package memoryinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/redis/go-redis/v9"
)

// RedisRepository guarda cada memoria como un documento JSON bajo
// "<prefix>:memory:<user_id>". Records never expire.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

type redisRecord struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRepository) key(userID kernel.UserID) string {
	return r.prefix + ":memory:" + userID.String()
}

func (r *RedisRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, memory.ErrMemoryNotFound().WithDetail("user_id", userID.String())
		}
		return nil, memory.ErrLookupFailed().WithCause(err).WithDetail("user_id", userID.String())
	}

	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, memory.ErrMalformed().WithCause(err).WithDetail("user_id", userID.String())
	}

	data, err := memory.Decode(userID, stored.Data)
	if err != nil {
		return nil, err
	}

	return &memory.Record{
		UserID:    userID,
		Data:      data,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (r *RedisRepository) Save(ctx context.Context, record *memory.Record) error {
	if record == nil || record.UserID.IsEmpty() {
		return memory.ErrInvalidUser()
	}

	data, err := json.Marshal(record.Data)
	if err != nil {
		return memory.ErrSaveFailed().WithCause(err).WithDetail("user_id", record.UserID.String())
	}
	payload, err := json.Marshal(redisRecord{Data: data, UpdatedAt: record.UpdatedAt})
	if err != nil {
		return memory.ErrSaveFailed().WithCause(err).WithDetail("user_id", record.UserID.String())
	}

	if err := r.client.Set(ctx, r.key(record.UserID), payload, 0).Err(); err != nil {
		return memory.ErrSaveFailed().WithCause(err).WithDetail("user_id", record.UserID.String())
	}
	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
