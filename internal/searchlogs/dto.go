package searchlogs

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// SearchLogDTO is one recorded catalog search. UserID is nil for anonymous
// shoppers.
type SearchLogDTO struct {
	ID             uuid.UUID      `json:"id"`
	UserID         *uuid.UUID     `json:"user_id"`
	Query          string         `json:"query"`
	FiltersApplied map[string]any `json:"filters_applied"`
	CreatedAt      time.Time      `json:"created_at"`
}

func mapSearchLog(l models.SearchLog) SearchLogDTO {
	filters := map[string]any(l.FiltersApplied)
	if filters == nil {
		filters = map[string]any{}
	}
	return SearchLogDTO{
		ID:             l.ID,
		UserID:         l.UserID,
		Query:          l.Query,
		FiltersApplied: filters,
		CreatedAt:      l.CreatedAt,
	}
}
