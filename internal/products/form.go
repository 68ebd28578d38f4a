package product

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductForm carries the raw multipart fields. A nil pointer means the
// field was not sent.
type ProductForm struct {
	Name          *string
	Slug          *string
	Description   *string
	Brand         *string
	CategoryID    *string
	SubcategoryID *string
	Price         *string
	PreviousPrice *string
	Stock         *string
	Variants      *string
	Tags          *string
	IsFeatured    *string
	IsTrending    *string
}

// FormFromValues picks the product fields out of multipart form values.
func FormFromValues(values map[string][]string) ProductForm {
	get := func(key string) *string {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return nil
		}
		s := v[0]
		return &s
	}
	return ProductForm{
		Name:          get("name"),
		Slug:          get("slug"),
		Description:   get("description"),
		Brand:         get("brand"),
		CategoryID:    get("category_id"),
		SubcategoryID: get("subcategory_id"),
		Price:         get("price"),
		PreviousPrice: get("previous_price"),
		Stock:         get("stock"),
		Variants:      get("variants"),
		Tags:          get("tags"),
		IsFeatured:    get("is_featured"),
		IsTrending:    get("is_trending"),
	}
}

// productFields is the typed form. clear* flags mean an empty value was sent
// for an optional column.
type productFields struct {
	name          *string
	slug          *string
	description   *string
	brand         *string
	clearBrand    bool
	categoryID    *uuid.UUID
	subcategoryID *uuid.UUID
	clearSub      bool
	price         *decimal.Decimal
	previousPrice *decimal.Decimal
	clearPrevious bool
	stock         *int
	variants      *[]models.Variant
	tags          *[]string
	featured      *bool
	trending      *bool
}

var errMalformedJSONFields = pkgerrors.New(pkgerrors.CodeValidation, "variants and tags must be valid JSON arrays")

func (f ProductForm) parse(creating bool) (productFields, error) {
	var out productFields
	problems := map[string]string{}

	if f.Variants != nil && strings.TrimSpace(*f.Variants) != "" {
		var variants []models.Variant
		if err := json.Unmarshal([]byte(*f.Variants), &variants); err != nil {
			return out, errMalformedJSONFields
		}
		for i := range variants {
			variants[i].Color = strings.TrimSpace(variants[i].Color)
			variants[i].Size = strings.TrimSpace(variants[i].Size)
			if variants[i].Stock < 0 {
				problems["variants"] = "variant stock must be at least 0"
			}
		}
		if variants == nil {
			variants = []models.Variant{}
		}
		out.variants = &variants
	}
	if f.Tags != nil && strings.TrimSpace(*f.Tags) != "" {
		var tags []string
		if err := json.Unmarshal([]byte(*f.Tags), &tags); err != nil {
			return out, errMalformedJSONFields
		}
		cleaned := make([]string, 0, len(tags))
		for _, tag := range tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				cleaned = append(cleaned, tag)
			}
		}
		out.tags = &cleaned
	}

	if f.Name != nil {
		if name := strings.TrimSpace(*f.Name); name != "" {
			out.name = &name
		} else {
			problems["name"] = "must not be blank"
		}
	} else if creating {
		problems["name"] = "is required"
	}

	if f.Slug != nil {
		if slug := strings.ToLower(strings.TrimSpace(*f.Slug)); slug != "" {
			out.slug = &slug
		} else {
			problems["slug"] = "must not be blank"
		}
	} else if creating {
		problems["slug"] = "is required"
	}

	if f.Description != nil {
		desc := strings.TrimSpace(*f.Description)
		out.description = &desc
	}
	if f.Brand != nil {
		if brand := strings.TrimSpace(*f.Brand); brand != "" {
			out.brand = &brand
		} else {
			out.clearBrand = true
		}
	}

	if f.CategoryID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*f.CategoryID))
		if err != nil {
			problems["category_id"] = "must be a valid id"
		} else {
			out.categoryID = &id
		}
	} else if creating {
		problems["category_id"] = "is required"
	}

	if f.SubcategoryID != nil {
		raw := strings.TrimSpace(*f.SubcategoryID)
		if raw == "" {
			out.clearSub = true
		} else if id, err := uuid.Parse(raw); err != nil {
			problems["subcategory_id"] = "must be a valid id"
		} else {
			out.subcategoryID = &id
		}
	}

	if f.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*f.Price))
		switch {
		case err != nil:
			problems["price"] = "must be a decimal number"
		case price.IsNegative():
			problems["price"] = "must be at least 0"
		default:
			price = price.Round(2)
			out.price = &price
		}
	} else if creating {
		problems["price"] = "is required"
	}

	if f.PreviousPrice != nil {
		raw := strings.TrimSpace(*f.PreviousPrice)
		if raw == "" {
			out.clearPrevious = true
		} else if prev, err := decimal.NewFromString(raw); err != nil {
			problems["previous_price"] = "must be a decimal number"
		} else if prev.IsNegative() {
			problems["previous_price"] = "must be at least 0"
		} else {
			prev = prev.Round(2)
			out.previousPrice = &prev
		}
	}

	if f.Stock != nil {
		stock, err := strconv.Atoi(strings.TrimSpace(*f.Stock))
		switch {
		case err != nil:
			problems["stock"] = "must be an integer"
		case stock < 0:
			problems["stock"] = "must be at least 0"
		default:
			out.stock = &stock
		}
	}

	out.featured = parseFlag(f.IsFeatured, "is_featured", problems)
	out.trending = parseFlag(f.IsTrending, "is_trending", problems)

	if len(problems) > 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(problems)
	}
	return out, nil
}

func parseFlag(raw *string, field string, problems map[string]string) *bool {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(*raw))
	if err != nil {
		problems[field] = "must be true or false"
		return nil
	}
	return &v
}

// updates renders the typed form as column updates.
func (p productFields) updates() map[string]any {
	out := map[string]any{}
	if p.name != nil {
		out["name"] = *p.name
	}
	if p.slug != nil {
		out["slug"] = *p.slug
	}
	if p.description != nil {
		out["description"] = *p.description
	}
	if p.brand != nil {
		out["brand"] = *p.brand
	} else if p.clearBrand {
		out["brand"] = nil
	}
	if p.categoryID != nil {
		out["category_id"] = *p.categoryID
	}
	if p.subcategoryID != nil {
		out["subcategory_id"] = *p.subcategoryID
	} else if p.clearSub {
		out["subcategory_id"] = nil
	}
	if p.price != nil {
		out["price"] = *p.price
	}
	if p.previousPrice != nil {
		out["previous_price"] = *p.previousPrice
	} else if p.clearPrevious {
		out["previous_price"] = nil
	}
	if p.stock != nil {
		out["stock"] = *p.stock
	}
	if p.variants != nil {
		out["variants"] = datatypes.JSONSlice[models.Variant](*p.variants)
	}
	if p.tags != nil {
		out["tags"] = datatypes.JSONSlice[string](*p.tags)
	}
	if p.featured != nil {
		out["is_featured"] = *p.featured
	}
	if p.trending != nil {
		out["is_trending"] = *p.trending
	}
	return out
}
