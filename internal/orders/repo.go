package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first by placed_at. A nil userID lists every order.
func (r *repository) List(ctx context.Context, userID *uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	query, err := pagination.Apply(query, "placed_at", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetStatus writes status and delivered_at together.
func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"delivered_at": deliveredAt,
		})
	return res.RowsAffected > 0, res.Error
}

// CancelIfCancellable moves the order to cancelled only while its status is
// still cancellable, so racing cancels cannot both win.
func (r *repository) CancelIfCancellable(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID, enums.CancellableOrderStatuses).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"delivered_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}
