package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	SubcategoryID *uuid.UUID `json:"subcategory_id,omitempty"`
	Featured      *bool      `json:"featured,omitempty"`
	Trending      *bool      `json:"trending,omitempty"`
	Query         string     `json:"q,omitempty"`
}

// ListProductsInput captures one browse request. ActorID is set when the
// caller presented a valid token and is only used for search logging.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
	ActorID    *uuid.UUID
}

// applied returns the non-query filters in the shape stored on search logs.
func (f ProductListFilters) applied() map[string]any {
	out := map[string]any{}
	if f.CategoryID != nil {
		out["category_id"] = f.CategoryID.String()
	}
	if f.SubcategoryID != nil {
		out["subcategory_id"] = f.SubcategoryID.String()
	}
	if f.Featured != nil {
		out["featured"] = *f.Featured
	}
	if f.Trending != nil {
		out["trending"] = *f.Trending
	}
	return out
}
