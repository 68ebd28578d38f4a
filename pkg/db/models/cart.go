package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartLine is a (product, quantity) pair. A product appears at most once.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Cart is the single active cart of a user. Version guards read-modify-write.
type Cart struct {
	ID        uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID                     `gorm:"column:user_id;type:uuid;not null;uniqueIndex:carts_user_id_key"`
	Items     datatypes.JSONSlice[CartLine] `gorm:"column:items;not null"`
	Version   int                           `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                     `gorm:"column:updated_at"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Items == nil {
		c.Items = datatypes.JSONSlice[CartLine]{}
	}
	return nil
}
