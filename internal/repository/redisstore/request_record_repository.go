package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docqa-be/internal/entity"
	"docqa-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docqa:request:"

// kv is the slice of the redis client the repository needs.
type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type RequestRecordRepository struct {
	rdb kv
	ttl time.Duration
}

var _ contract.RequestRecordRepository = (*RequestRecordRepository)(nil)

func NewRequestRecordRepository(rdb *redis.Client, ttl time.Duration) *RequestRecordRepository {
	return &RequestRecordRepository{rdb: rdb, ttl: ttl}
}

func newWithKV(store kv, ttl time.Duration) *RequestRecordRepository {
	return &RequestRecordRepository{rdb: store, ttl: ttl}
}

func recordKey(id string) string {
	return keyPrefix + id
}

func (r *RequestRecordRepository) Save(ctx context.Context, record *entity.RequestRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.ID, err)
	}
	if err := r.rdb.Set(ctx, recordKey(record.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save record %s: %w", record.ID, err)
	}
	return nil
}

func (r *RequestRecordRepository) FindByID(ctx context.Context, id string) (*entity.RequestRecord, error) {
	data, err := r.rdb.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contract.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}

	var rec entity.RequestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &rec, nil
}
