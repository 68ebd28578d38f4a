package ratings

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers product ratings and reviews.
type Service interface {
	Rate(ctx context.Context, userID, productID uuid.UUID, input RateInput) (*RatingResult, error)
	CreateReview(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[ReviewDTO], error)
	DeleteReview(ctx context.Context, userID uuid.UUID, role enums.Role, reviewID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Rate stores a new score and refreshes the product's cached average and
// count in the same transaction. Earlier scores by the same user are kept.
func (s *service) Rate(ctx context.Context, userID, productID uuid.UUID, input RateInput) (*RatingResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var result RatingResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureProduct(ctx, repo, productID); err != nil {
			return err
		}
		if err := repo.CreateRating(ctx, &models.Rating{UserID: userID, ProductID: productID, Rating: input.Rating}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save rating")
		}
		agg, err := repo.Aggregate(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate ratings")
		}
		if err := repo.UpdateProductAggregate(ctx, productID, agg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
		}
		result = RatingResult{ProductID: productID, Rating: input.Rating, Aggregate: agg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) CreateReview(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment required")
	}
	if err := s.ensureProduct(ctx, s.repo, productID); err != nil {
		return nil, err
	}

	review := &models.Review{UserID: userID, ProductID: productID, Comment: comment}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			review.Title = &title
		}
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save review")
	}
	dto := mapReview(*review)
	return &dto, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[ReviewDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if err := s.ensureProduct(ctx, s.repo, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListReviews(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	page := pagination.Build(rows, params.Limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := pagination.Page[ReviewDTO]{Items: make([]ReviewDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, r := range page.Items {
		out.Items = append(out.Items, mapReview(r))
	}
	return &out, nil
}

// DeleteReview is allowed for the review's author or an admin.
func (s *service) DeleteReview(ctx context.Context, userID uuid.UUID, role enums.Role, reviewID uuid.UUID) error {
	review, err := s.repo.FindReview(ctx, reviewID)
	if err != nil {
		return pkgerrors.FromStore(err, "review not found", "load review")
	}
	if review.UserID != userID && !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	deleted, err := s.repo.DeleteReview(ctx, reviewID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) ensureProduct(ctx context.Context, repo Repository, productID uuid.UUID) error {
	ok, err := repo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
