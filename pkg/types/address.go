package types

import "strings"

// ShippingAddress is the postal address snapshot copied onto an order.
type ShippingAddress struct {
	Name        string `json:"name" validate:"omitempty,max=120"`
	Phone       string `json:"phone" validate:"omitempty,e164"`
	AddressLine string `json:"address_line" validate:"required,max=255"`
	City        string `json:"city" validate:"required,max=120"`
	PostalCode  string `json:"postal_code" validate:"required,max=32"`
	Country     string `json:"country" validate:"required,max=64"`
}

// Normalize trims every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Name:        strings.TrimSpace(a.Name),
		Phone:       strings.TrimSpace(a.Phone),
		AddressLine: strings.TrimSpace(a.AddressLine),
		City:        strings.TrimSpace(a.City),
		PostalCode:  strings.TrimSpace(a.PostalCode),
		Country:     strings.TrimSpace(a.Country),
	}
}

// IsZero reports whether no address information was supplied.
func (a ShippingAddress) IsZero() bool {
	return a.Normalize() == ShippingAddress{}
}
