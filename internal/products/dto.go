package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Brand         *string          `json:"brand,omitempty"`
	CategoryID    uuid.UUID        `json:"category_id"`
	Category      *CategorySummary `json:"category,omitempty"`
	SubcategoryID *uuid.UUID       `json:"subcategory_id,omitempty"`
	Subcategory   *CategorySummary `json:"subcategory,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	PreviousPrice *decimal.Decimal `json:"previous_price,omitempty"`
	Stock         int              `json:"stock"`
	Variants      []models.Variant `json:"variants"`
	Images        []string         `json:"images"`
	Tags          []string         `json:"tags"`
	IsFeatured    bool             `json:"is_featured"`
	IsTrending    bool             `json:"is_trending"`
	RatingAverage decimal.Decimal  `json:"rating_average"`
	RatingCount   int              `json:"rating_count"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CategorySummary is the resolved category or subcategory reference.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func mapProduct(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Brand:         p.Brand,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Price:         p.Price,
		PreviousPrice: p.PreviousPrice,
		Stock:         p.Stock,
		Variants:      nonNil([]models.Variant(p.Variants)),
		Images:        nonNil([]string(p.Images)),
		Tags:          nonNil([]string(p.Tags)),
		IsFeatured:    p.IsFeatured,
		IsTrending:    p.IsTrending,
		RatingAverage: p.RatingAverage,
		RatingCount:   p.RatingCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	if p.Subcategory != nil {
		dto.Subcategory = &CategorySummary{ID: p.Subcategory.ID, Name: p.Subcategory.Name, Slug: p.Subcategory.Slug}
	}
	return dto
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
