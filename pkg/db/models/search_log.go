package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SearchLog struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	Query          string            `gorm:"column:query;not null"`
	FiltersApplied datatypes.JSONMap `gorm:"column:filters_applied"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}

func (s *SearchLog) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
