package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubProductService struct {
	listFn   func(ctx context.Context, input product.ListProductsInput) (*pagination.Page[product.ProductDTO], error)
	createFn func(ctx context.Context, role enums.Role, form product.ProductForm, files []*multipart.FileHeader) (*product.ProductDTO, error)
}

func (s *stubProductService) ListProducts(ctx context.Context, input product.ListProductsInput) (*pagination.Page[product.ProductDTO], error) {
	return s.listFn(ctx, input)
}

func (s *stubProductService) GetProduct(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (s *stubProductService) CreateProduct(ctx context.Context, role enums.Role, form product.ProductForm, files []*multipart.FileHeader) (*product.ProductDTO, error) {
	return s.createFn(ctx, role, form, files)
}

func (s *stubProductService) UpdateProduct(_ context.Context, _ enums.Role, id uuid.UUID, _ product.ProductForm, _ []*multipart.FileHeader) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (s *stubProductService) DeleteProduct(context.Context, enums.Role, uuid.UUID) error {
	return nil
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(imagesField, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestListProductsParsesFilters(t *testing.T) {
	categoryID := uuid.New()
	userID := uuid.New()
	svc := &stubProductService{
		listFn: func(_ context.Context, input product.ListProductsInput) (*pagination.Page[product.ProductDTO], error) {
			require.NotNil(t, input.Filters.CategoryID)
			assert.Equal(t, categoryID, *input.Filters.CategoryID)
			require.NotNil(t, input.Filters.Featured)
			assert.True(t, *input.Filters.Featured)
			assert.Equal(t, "running shoes", input.Filters.Query)
			require.NotNil(t, input.ActorID)
			assert.Equal(t, userID, *input.ActorID)
			return &pagination.Page[product.ProductDTO]{}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id="+categoryID.String()+"&featured=true&q=running+shoes", nil)
	req = withUser(req, userID, enums.RoleUser)
	resp := httptest.NewRecorder()

	ListProducts(svc, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListProductsAnonymousHasNoActor(t *testing.T) {
	svc := &stubProductService{
		listFn: func(_ context.Context, input product.ListProductsInput) (*pagination.Page[product.ProductDTO], error) {
			assert.Nil(t, input.ActorID)
			return &pagination.Page[product.ProductDTO]{}, nil
		},
	}
	resp := httptest.NewRecorder()
	ListProducts(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListProductsRejectsBadCategory(t *testing.T) {
	resp := httptest.NewRecorder()
	ListProducts(&stubProductService{}, logger.Nop())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id=shoes", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateProductReadsMultipart(t *testing.T) {
	svc := &stubProductService{
		createFn: func(_ context.Context, role enums.Role, form product.ProductForm, files []*multipart.FileHeader) (*product.ProductDTO, error) {
			assert.Equal(t, enums.RoleAdmin, role)
			require.NotNil(t, form.Name)
			assert.Equal(t, "Trail Runner", *form.Name)
			require.NotNil(t, form.Price)
			assert.Equal(t, "89.50", *form.Price)
			require.Len(t, files, 1)
			assert.Equal(t, "front.png", files[0].Filename)
			return &product.ProductDTO{ID: uuid.New()}, nil
		},
	}
	body, contentType := multipartBody(t,
		map[string]string{"name": "Trail Runner", "price": "89.50"},
		map[string][]byte{"front.png": []byte("\x89PNG\r\n\x1a\nfake")},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New(), enums.RoleAdmin)
	resp := httptest.NewRecorder()

	CreateProduct(svc, 1<<20, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestCreateProductRequiresMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withUser(req, uuid.New(), enums.RoleAdmin)
	resp := httptest.NewRecorder()

	CreateProduct(&stubProductService{}, 1<<20, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateProductRejectsOversizedUpload(t *testing.T) {
	body, contentType := multipartBody(t,
		map[string]string{"name": "Big"},
		map[string][]byte{"huge.png": bytes.Repeat([]byte("a"), 4096)},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New(), enums.RoleAdmin)
	resp := httptest.NewRecorder()

	CreateProduct(&stubProductService{}, 1024, logger.Nop())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "upload too large", decodeError(t, resp).Message)
}
