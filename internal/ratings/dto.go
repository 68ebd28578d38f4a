package ratings

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

type RateInput struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

type ReviewInput struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Comment string  `json:"comment" validate:"required,max=5000"`
}

// RatingResult is the caller's stored score plus the product's new summary.
type RatingResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Aggregate
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     *string   `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func mapReview(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Title:     r.Title,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
