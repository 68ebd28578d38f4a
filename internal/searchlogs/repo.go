package searchlogs

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, entry *models.SearchLog) error
	List(ctx context.Context, params pagination.Params, query string) ([]models.SearchLog, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, entry *models.SearchLog) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, query string) ([]models.SearchLog, error) {
	q := r.DB(ctx).Model(&models.SearchLog{})
	if query != "" {
		q = q.Where("LOWER(query) LIKE ?", "%"+query+"%")
	}
	q, err := pagination.Apply(q, "created_at", params)
	if err != nil {
		return nil, err
	}
	var rows []models.SearchLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("created_at < ?", cutoff).Delete(&models.SearchLog{})
	return res.RowsAffected, res.Error
}
