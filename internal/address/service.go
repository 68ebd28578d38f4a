package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's saved shipping addresses. At most one address per
// user is the default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateAddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAddress(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	address, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "address not found", "load address")
	}
	dto := mapAddress(*address)
	return &dto, nil
}

// Create saves a new address. The first address a user saves becomes the
// default even when not requested.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addr := input.ShippingAddress.Normalize()
	if addr.AddressLine == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address_line, city, postal_code and country are required")
	}

	record := &models.Address{
		UserID:      userID,
		Name:        addr.Name,
		Phone:       addr.Phone,
		AddressLine: addr.AddressLine,
		City:        addr.City,
		PostalCode:  addr.PostalCode,
		Country:     addr.Country,
		IsDefault:   input.IsDefault,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if !record.IsDefault {
			count, err := repo.Count(ctx, userID)
			if err != nil {
				return err
			}
			record.IsDefault = count == 0
		}
		if err := repo.Create(ctx, record); err != nil {
			return err
		}
		if record.IsDefault {
			return repo.ClearDefault(ctx, userID, record.ID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save address")
	}
	dto := mapAddress(*record)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateAddressInput) (*AddressDTO, error) {
	updates := map[string]any{}
	setText := func(column string, value *string, required bool) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if required && trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, column+" must not be blank")
		}
		updates[column] = trimmed
		return nil
	}
	for _, f := range []struct {
		column   string
		value    *string
		required bool
	}{
		{"name", input.Name, false},
		{"phone", input.Phone, false},
		{"address_line", input.AddressLine, true},
		{"city", input.City, true},
		{"postal_code", input.PostalCode, true},
		{"country", input.Country, true},
	} {
		if err := setText(f.column, f.value, f.required); err != nil {
			return nil, err
		}
	}
	if input.IsDefault != nil {
		updates["is_default"] = *input.IsDefault
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindOwned(ctx, userID, id); err != nil {
			return pkgerrors.FromStore(err, "address not found", "load address")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.Update(ctx, userID, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
		}
		if input.IsDefault != nil && *input.IsDefault {
			if err := repo.ClearDefault(ctx, userID, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}
