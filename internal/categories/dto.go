package categories

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubcategoryDTO embeds its parent when the subcategory has one.
type SubcategoryDTO struct {
	ID         uuid.UUID    `json:"id"`
	CategoryID *uuid.UUID   `json:"category_id"`
	Category   *CategoryDTO `json:"category,omitempty"`
	Name       string       `json:"name"`
	Slug       string       `json:"slug"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug" validate:"required,max=140"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Slug        *string `json:"slug" validate:"omitempty,max=140"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type CreateSubcategoryInput struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Name       string     `json:"name" validate:"required,max=120"`
	Slug       string     `json:"slug" validate:"required,max=140"`
}

// UpdateSubcategoryInput changes a subcategory. ClearCategory detaches it
// from its parent; CategoryID re-parents it.
type UpdateSubcategoryInput struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	ClearCategory bool       `json:"clear_category"`
	Name          *string    `json:"name" validate:"omitempty,max=120"`
	Slug          *string    `json:"slug" validate:"omitempty,max=140"`
}

func normalizeSlug(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func mapCategory(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func mapSubcategory(s models.Subcategory) SubcategoryDTO {
	dto := SubcategoryDTO{
		ID:         s.ID,
		CategoryID: s.CategoryID,
		Name:       s.Name,
		Slug:       s.Slug,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Category != nil {
		parent := mapCategory(*s.Category)
		dto.Category = &parent
	}
	return dto
}
