package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:categories_slug_key"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Subcategory optionally hangs off a Category.
type Subcategory struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid;index"`
	Category   *Category  `gorm:"foreignKey:CategoryID"`
	Name       string     `gorm:"column:name;not null"`
	Slug       string     `gorm:"column:slug;not null;uniqueIndex:subcategories_slug_key"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subcategory) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
