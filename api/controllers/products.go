package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// multipartMemory is how much of a form is held in memory before spilling to
// temp files.
const multipartMemory = 8 << 20

const imagesField = "images"

// ListProducts is public. A caller with a valid token is attached to the
// search log when q is present.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			filters product.ProductListFilters
			err     error
		)
		if filters.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.SubcategoryID, err = validators.ParseQueryUUID(r, "subcategory_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.Featured, err = validators.ParseQueryBool(r, "featured"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.Trending, err = validators.ParseQueryBool(r, "trending"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Query = validators.SanitizeString(r.URL.Query().Get("q"), 200)

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.ListProductsInput{Filters: filters, Pagination: params}
		if actor := middleware.UserIDFromContext(r.Context()); actor != uuid.Nil {
			input.ActorID = &actor
		}
		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CreateProduct accepts multipart/form-data with the product fields and any
// number of "images" files.
func CreateProduct(svc product.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, files, cleanup, err := readProductForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateProduct(r.Context(), middleware.RoleFromContext(r.Context()), form, files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, "product created", dto)
	}
}

// UpdateProduct applies the sent fields. Sending images replaces the whole
// image list.
func UpdateProduct(svc product.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, files, cleanup, err := readProductForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateProduct(r.Context(), middleware.RoleFromContext(r.Context()), id, form, files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, "product updated", dto)
	}
}

func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), middleware.RoleFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, "product deleted", nil)
	}
}

// readProductForm parses the multipart body. The returned cleanup removes
// spilled temp files and is always safe to call.
func readProductForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (product.ProductForm, []*multipart.FileHeader, func(), error) {
	cleanup := func() {}
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return product.ProductForm{}, nil, cleanup, pkgerrors.New(pkgerrors.CodeValidation, "multipart/form-data body required")
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return product.ProductForm{}, nil, cleanup, pkgerrors.New(pkgerrors.CodeValidation, "upload too large")
		}
		return product.ProductForm{}, nil, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	cleanup = func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return product.FormFromValues(r.MultipartForm.Value), r.MultipartForm.File[imagesField], cleanup, nil
}
