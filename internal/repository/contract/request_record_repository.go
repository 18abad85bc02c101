package contract

import (
	"context"
	"errors"

	"docqa-be/internal/entity"
)

var ErrRecordNotFound = errors.New("request record not found")

type RequestRecordRepository interface {
	Save(ctx context.Context, record *entity.RequestRecord) error
	FindByID(ctx context.Context, id string) (*entity.RequestRecord, error)
}
