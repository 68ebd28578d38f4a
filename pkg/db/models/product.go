package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Variant is one color/size combination with its own stock.
type Variant struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
	Stock int    `json:"stock"`
}

// Product represents a catalog listing.
type Product struct {
	ID            uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                       `gorm:"column:name;not null"`
	Slug          string                       `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description   string                       `gorm:"column:description;not null"`
	Brand         *string                      `gorm:"column:brand"`
	CategoryID    uuid.UUID                    `gorm:"column:category_id;type:uuid;not null;index"`
	Category      *Category                    `gorm:"foreignKey:CategoryID"`
	SubcategoryID *uuid.UUID                   `gorm:"column:subcategory_id;type:uuid;index"`
	Subcategory   *Subcategory                 `gorm:"foreignKey:SubcategoryID"`
	Price         decimal.Decimal              `gorm:"column:price;type:numeric(12,2);not null"`
	PreviousPrice *decimal.Decimal             `gorm:"column:previous_price;type:numeric(12,2)"`
	Stock         int                          `gorm:"column:stock;not null;default:0"`
	Variants      datatypes.JSONSlice[Variant] `gorm:"column:variants;not null"`
	Images        datatypes.JSONSlice[string]  `gorm:"column:images;not null"`
	Tags          datatypes.JSONSlice[string]  `gorm:"column:tags;not null"`
	IsFeatured    bool                         `gorm:"column:is_featured;not null;default:false"`
	IsTrending    bool                         `gorm:"column:is_trending;not null;default:false"`
	RatingAverage decimal.Decimal              `gorm:"column:rating_average;type:numeric(3,2);not null;default:0"`
	RatingCount   int                          `gorm:"column:rating_count;not null;default:0"`
	CreatedAt     time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Variants == nil {
		p.Variants = datatypes.JSONSlice[Variant]{}
	}
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[string]{}
	}
	if p.Tags == nil {
		p.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}
