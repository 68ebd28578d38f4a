package ratings

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	CreateRating(ctx context.Context, rating *models.Rating) error
	Aggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error)
	UpdateProductAggregate(ctx context.Context, productID uuid.UUID, agg Aggregate) error

	CreateReview(ctx context.Context, review *models.Review) error
	FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) (bool, error)
}

// Aggregate is the rating summary cached on the product row.
type Aggregate struct {
	Average decimal.Decimal `json:"rating_average"`
	Count   int             `json:"rating_count"`
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Product{}, "id = ?", productID)
}

func (r *repository) CreateRating(ctx context.Context, rating *models.Rating) error {
	return r.DB(ctx).Create(rating).Error
}

func (r *repository) Aggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := r.DB(ctx).Model(&models.Rating{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return Aggregate{}, err
	}
	agg := Aggregate{Average: decimal.Zero, Count: int(row.Count)}
	if row.Count > 0 {
		agg.Average = decimal.NewFromInt(row.Total).DivRound(decimal.NewFromInt(row.Count), 2)
	}
	return agg, nil
}

func (r *repository) UpdateProductAggregate(ctx context.Context, productID uuid.UUID, agg Aggregate) error {
	return r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating_average": agg.Average,
			"rating_count":   agg.Count,
		}).Error
}

func (r *repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

func (r *repository) FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, error) {
	query, err := pagination.Apply(r.DB(ctx).Where("product_id = ?", productID), "created_at", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Review
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteReview(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.Review{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
