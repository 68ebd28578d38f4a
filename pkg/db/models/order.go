package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderItem is one copied cart line.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Order is a snapshot of what was bought; items and address are copies.
type Order struct {
	ID              uuid.UUID                                 `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID                                 `gorm:"column:user_id;type:uuid;not null;index"`
	Items           datatypes.JSONSlice[OrderItem]            `gorm:"column:items;not null"`
	Status          enums.OrderStatus                         `gorm:"column:status;not null;default:pending"`
	TotalAmount     decimal.Decimal                           `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress datatypes.JSONType[types.ShippingAddress] `gorm:"column:shipping_address"`
	PaymentMethod   string                                    `gorm:"column:payment_method;not null"`
	PlacedAt        time.Time                                 `gorm:"column:placed_at;not null;index"`
	DeliveredAt     *time.Time                                `gorm:"column:delivered_at"`
	UpdatedAt       time.Time                                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
