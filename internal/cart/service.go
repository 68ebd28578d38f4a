package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxCASAttempts bounds how often a cart write re-reads after losing a race.
const maxCASAttempts = 3

// Service manages the single active cart of each user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	// TakeForOrder empties the cart inside tx and returns the lines it held.
	TakeForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.CartLine, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

var errCartNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CartDTO{UserID: userID, Items: []CartItemDTO{}, Subtotal: decimal.Zero}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.resolve(ctx, cart)
}

// AddItem creates the cart on first use. A product already in the cart has
// its quantity increased instead of gaining a second line.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id required")
	}
	ok, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	cart, err := s.mutate(ctx, s.repo, userID, true, func(items []models.CartLine) ([]models.CartLine, error) {
		for i := range items {
			if items[i].ProductID == input.ProductID {
				items[i].Quantity += input.Quantity
				return items, nil
			}
		}
		return append(items, models.CartLine{ProductID: input.ProductID, Quantity: input.Quantity}), nil
	})
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.mutate(ctx, s.repo, userID, false, func(items []models.CartLine) ([]models.CartLine, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = input.Quantity
				return items, nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	})
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

// RemoveItem drops the product's line. Removing an absent line is a no-op.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.mutate(ctx, s.repo, userID, false, func(items []models.CartLine) ([]models.CartLine, error) {
		kept := items[:0]
		for _, line := range items {
			if line.ProductID != productID {
				kept = append(kept, line)
			}
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.mutate(ctx, s.repo, userID, false, func([]models.CartLine) ([]models.CartLine, error) {
		return []models.CartLine{}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *service) TakeForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.CartLine, error) {
	var taken []models.CartLine
	_, err := s.mutate(ctx, s.repo.WithTx(tx), userID, false, func(items []models.CartLine) ([]models.CartLine, error) {
		if len(items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		taken = append([]models.CartLine(nil), items...)
		return []models.CartLine{}, nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}

// mutate runs a read-modify-write on the user's cart guarded by its version.
// fn receives a private copy of the lines. When create is false a missing
// cart is NOT_FOUND.
func (s *service) mutate(ctx context.Context, repo Repository, userID uuid.UUID, create bool, fn func([]models.CartLine) ([]models.CartLine, error)) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		cart, err := repo.FindByUser(ctx, userID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !create {
				return nil, errCartNotFound
			}
			cart = nil
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		var current []models.CartLine
		if cart != nil {
			current = append(current, cart.Items...)
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()

		if cart == nil {
			fresh := &models.Cart{UserID: userID, Items: next, UpdatedAt: now}
			if err := repo.Create(ctx, fresh); err != nil {
				if db.IsUniqueViolation(err, "carts_user_id_key") {
					s.logg.Debug(s.logg.WithField(ctx, "attempt", attempt), "cart.create_race")
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
			}
			return fresh, nil
		}

		swapped, err := repo.CompareAndSwap(ctx, cart.ID, cart.Version, next, now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
		}
		if swapped {
			cart.Items = next
			cart.Version++
			cart.UpdatedAt = now
			return cart, nil
		}
		s.logg.Debug(s.logg.WithField(ctx, "attempt", attempt), "cart.version_conflict")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry")
}

func (s *service) resolve(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	id := cart.ID
	updated := cart.UpdatedAt
	out := &CartDTO{
		ID:        &id,
		UserID:    cart.UserID,
		Items:     make([]CartItemDTO, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		UpdatedAt: &updated,
	}
	for _, line := range cart.Items {
		item := CartItemDTO{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := byID[line.ProductID]; ok {
			images := []string(p.Images)
			if images == nil {
				images = []string{}
			}
			item.Product = &ProductSummary{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price, Stock: p.Stock, Images: images}
			out.Subtotal = out.Subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
