package address

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

type CreateAddressInput struct {
	types.ShippingAddress
	IsDefault bool `json:"is_default"`
}

type UpdateAddressInput struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	AddressLine *string `json:"address_line" validate:"omitempty,max=255"`
	City        *string `json:"city" validate:"omitempty,max=120"`
	PostalCode  *string `json:"postal_code" validate:"omitempty,max=32"`
	Country     *string `json:"country" validate:"omitempty,max=64"`
	IsDefault   *bool   `json:"is_default"`
}

// AddressDTO is a saved address as returned to its owner.
type AddressDTO struct {
	ID uuid.UUID `json:"id"`
	types.ShippingAddress
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot copies the address into the value stored on orders.
func (a AddressDTO) Snapshot() types.ShippingAddress {
	return a.ShippingAddress
}

func mapAddress(a models.Address) AddressDTO {
	return AddressDTO{
		ID:              a.ID,
		ShippingAddress: a.Snapshot(),
		IsDefault:       a.IsDefault,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
