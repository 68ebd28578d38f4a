package product

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/searchlogs"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUploader struct {
	urls      []string
	uploadErr error
	deleted   []string
}

func (s *stubUploader) UploadImages(_ context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return s.urls[:len(files)], nil
}

func (s *stubUploader) DeleteImages(_ context.Context, urls []string) error {
	s.deleted = append(s.deleted, urls...)
	return nil
}

type stubRecorder struct {
	inputs []searchlogs.RecordInput
	err    error
}

func (s *stubRecorder) Record(_ context.Context, input searchlogs.RecordInput) error {
	s.inputs = append(s.inputs, input)
	return s.err
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	uploader *stubUploader
	recorder *stubRecorder
	category models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	category := models.Category{Name: "Shoes", Slug: "shoes"}
	require.NoError(t, client.DB().Create(&category).Error)

	uploader := &stubUploader{urls: []string{"https://cdn.test/products/a.png", "https://cdn.test/products/b.png"}}
	recorder := &stubRecorder{}
	svc, err := NewService(NewRepository(client.DB()), uploader, recorder, logger.Nop())
	require.NoError(t, err)
	return &fixture{svc: svc, conn: client.DB(), uploader: uploader, recorder: recorder, category: category}
}

func str(v string) *string { return &v }

func (f *fixture) form(name, slug string) ProductForm {
	return ProductForm{
		Name:       str(name),
		Slug:       str(slug),
		CategoryID: str(f.category.ID.String()),
		Price:      str("19.99"),
		Stock:      str("5"),
		Variants:   str(`[{"color":"red","size":"M","stock":2}]`),
		Tags:       str(`["summer"," sale "]`),
	}
}

func files(n int) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, n)
	for i := range out {
		out[i] = &multipart.FileHeader{Filename: "img.png"}
	}
	return out
}

func TestCreateProductRequiresAdminBeforeValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateProduct(context.Background(), enums.RoleUser, ProductForm{}, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateProduct(context.Background(), enums.RoleUser, uuid.New(), ProductForm{}, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = f.svc.DeleteProduct(context.Background(), enums.RoleUser, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestCreateProductStoresDecodedFieldsAndImages(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateProduct(context.Background(), enums.RoleAdmin, f.form("Runner", "Runner"), files(2))
	require.NoError(t, err)

	assert.Equal(t, "runner", created.Slug)
	assert.Equal(t, "19.99", created.Price.StringFixed(2))
	assert.Equal(t, 5, created.Stock)
	assert.Equal(t, []models.Variant{{Color: "red", Size: "M", Stock: 2}}, created.Variants)
	assert.Equal(t, []string{"summer", "sale"}, created.Tags)
	assert.Len(t, created.Images, 2)
	require.NotNil(t, created.Category)
	assert.Equal(t, "shoes", created.Category.Slug)
}

func TestCreateProductMalformedJSONIsGeneric(t *testing.T) {
	f := newFixture(t)
	form := f.form("Runner", "runner")
	form.Variants = str(`[{"color":`)

	_, err := f.svc.CreateProduct(context.Background(), enums.RoleAdmin, form, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Nil(t, typed.Details())
}

func TestCreateProductValidatesFields(t *testing.T) {
	f := newFixture(t)
	form := f.form("Runner", "runner")
	form.Price = str("-1")
	form.Stock = str("-2")
	form.CategoryID = nil

	_, err := f.svc.CreateProduct(context.Background(), enums.RoleAdmin, form, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details := typed.Details().(map[string]string)
	assert.Contains(t, details, "price")
	assert.Contains(t, details, "stock")
	assert.Contains(t, details, "category_id")

	form = f.form("Runner", "runner")
	form.CategoryID = str(uuid.NewString())
	_, err = f.svc.CreateProduct(context.Background(), enums.RoleAdmin, form, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateProductDuplicateSlugDiscardsUploads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, enums.RoleAdmin, f.form("Runner", "runner"), nil)
	require.NoError(t, err)

	_, err = f.svc.CreateProduct(ctx, enums.RoleAdmin, f.form("Runner 2", "runner"), files(1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, []string{"https://cdn.test/products/a.png"}, f.uploader.deleted)
}

func TestCreateProductUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.uploadErr = pkgerrors.New(pkgerrors.CodeDependency, "upload image")

	_, err := f.svc.CreateProduct(context.Background(), enums.RoleAdmin, f.form("Runner", "runner"), files(1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, f.conn.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateProductReplacesImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, enums.RoleAdmin, f.form("Runner", "runner"), files(1))
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.test/products/a.png"}, created.Images)

	f.uploader.urls = []string{"https://cdn.test/products/c.png"}
	updated, err := f.svc.UpdateProduct(ctx, enums.RoleAdmin, created.ID, ProductForm{
		Price:         str("25"),
		PreviousPrice: str("30"),
		IsFeatured:    str("true"),
	}, files(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.test/products/c.png"}, updated.Images)
	assert.Equal(t, "25.00", updated.Price.StringFixed(2))
	require.NotNil(t, updated.PreviousPrice)
	assert.True(t, updated.IsFeatured)
	assert.Equal(t, "Runner", updated.Name)
	assert.Equal(t, []string{"https://cdn.test/products/a.png"}, f.uploader.deleted)
}

func TestUpdateProductWithoutFilesKeepsImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, enums.RoleAdmin, f.form("Runner", "runner"), files(1))
	require.NoError(t, err)

	updated, err := f.svc.UpdateProduct(ctx, enums.RoleAdmin, created.ID, ProductForm{Tags: str(`["new"]`)}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Images, updated.Images)
	assert.Equal(t, []string{"new"}, updated.Tags)
	assert.Empty(t, f.uploader.deleted)

	_, err = f.svc.UpdateProduct(ctx, enums.RoleAdmin, uuid.New(), ProductForm{}, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, enums.RoleAdmin, f.form("Runner", "runner"), files(1))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProduct(ctx, enums.RoleAdmin, created.ID))
	_, err = f.svc.GetProduct(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(f.svc.DeleteProduct(ctx, enums.RoleAdmin, created.ID), pkgerrors.CodeNotFound))
}

func TestListProductsFiltersAndLogsSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Trail Runner", "Road Runner", "Sandal"} {
		form := f.form(name, name)
		if name == "Sandal" {
			form.IsFeatured = str("true")
		}
		_, err := f.svc.CreateProduct(ctx, enums.RoleAdmin, form, nil)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	actor := uuid.New()
	page, err := f.svc.ListProducts(ctx, ListProductsInput{
		Filters: ProductListFilters{Query: "RUNNER"},
		ActorID: &actor,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Road Runner", page.Items[0].Name)
	require.Len(t, f.recorder.inputs, 1)
	assert.Equal(t, &actor, f.recorder.inputs[0].UserID)

	featured := true
	page, err = f.svc.ListProducts(ctx, ListProductsInput{Filters: ProductListFilters{Featured: &featured, CategoryID: &f.category.ID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Sandal", page.Items[0].Name)
	assert.Len(t, f.recorder.inputs, 1)

	page, err = f.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	next, err := f.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Trail Runner", next.Items[0].Name)
}

func TestListProductsSearchLogFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("db down")

	page, err := f.svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Query: "x"}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
