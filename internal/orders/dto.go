package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderInput is the checkout request. Items and FromCart are mutually
// exclusive, as are ShippingAddress and AddressID.
type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items" validate:"omitempty,dive"`
	FromCart        bool                   `json:"from_cart"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address"`
	AddressID       *uuid.UUID             `json:"address_id"`
	PaymentMethod   string                 `json:"payment_method" validate:"max=64"`
}

type UpdateStatusInput struct {
	Status string `json:"status"`
}

type ListParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// OrderDTO is the order snapshot returned to clients.
type OrderDTO struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	Items           []models.OrderItem     `json:"items"`
	Status          enums.OrderStatus      `json:"status"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	PlacedAt        time.Time              `json:"placed_at"`
	DeliveredAt     *time.Time             `json:"delivered_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func mapOrder(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         []models.OrderItem(o.Items),
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.PlacedAt,
		DeliveredAt:   o.DeliveredAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if dto.Items == nil {
		dto.Items = []models.OrderItem{}
	}
	if addr := o.ShippingAddress.Data(); !addr.IsZero() {
		dto.ShippingAddress = &addr
	}
	return dto
}
