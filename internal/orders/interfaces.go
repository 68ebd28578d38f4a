package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID *uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) (bool, error)
	CancelIfCancellable(ctx context.Context, id, userID uuid.UUID) (bool, error)
}
