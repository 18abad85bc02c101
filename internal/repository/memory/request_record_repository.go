package memory

import (
	"context"
	"time"

	"docqa-be/internal/entity"
	"docqa-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// RequestRecordRepository keeps records in process memory. Used when Redis
// is unreachable.
type RequestRecordRepository struct {
	cache *cache.Cache
}

var _ contract.RequestRecordRepository = (*RequestRecordRepository)(nil)

func NewRequestRecordRepository(ttl time.Duration) *RequestRecordRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RequestRecordRepository{cache: cache.New(ttl, 10*time.Minute)}
}

func (r *RequestRecordRepository) Save(ctx context.Context, record *entity.RequestRecord) error {
	cp := *record
	r.cache.Set(record.ID, &cp, cache.DefaultExpiration)
	return nil
}

func (r *RequestRecordRepository) FindByID(ctx context.Context, id string) (*entity.RequestRecord, error) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, contract.ErrRecordNotFound
	}
	cp := *x.(*entity.RequestRecord)
	return &cp, nil
}
