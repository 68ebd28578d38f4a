package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository persists the per-user cart document.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	CompareAndSwap(ctx context.Context, cartID uuid.UUID, version int, items []models.CartLine, now time.Time) (bool, error)
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
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

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.DB(ctx).Create(cart).Error
}

// CompareAndSwap writes items only if the stored version still equals
// version, bumping it by one. It reports whether the write happened.
func (r *repository) CompareAndSwap(ctx context.Context, cartID uuid.UUID, version int, items []models.CartLine, now time.Time) (bool, error) {
	if items == nil {
		items = []models.CartLine{}
	}
	res := r.DB(ctx).Model(&models.Cart{}).
		Where("id = ? AND version = ?", cartID, version).
		Updates(map[string]any{
			"items":      datatypes.JSONSlice[models.CartLine](items),
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Product{}, "id = ?", productID)
}

func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
