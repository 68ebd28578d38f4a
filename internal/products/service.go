package product

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/searchlogs"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Service exposes catalog product operations. Mutations are admin only.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, role enums.Role, form ProductForm, files []*multipart.FileHeader) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, role enums.Role, id uuid.UUID, form ProductForm, files []*multipart.FileHeader) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, role enums.Role, id uuid.UUID) error
}

type searchRecorder interface {
	Record(ctx context.Context, input searchlogs.RecordInput) error
}

type service struct {
	repo     Repository
	media    media.Uploader
	searches searchRecorder
	logg     *logger.Logger
}

func NewService(repo Repository, uploader media.Uploader, searches searchRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("media uploader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, media: uploader, searches: searches, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, input.Filters, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	if input.Filters.Query != "" && s.searches != nil {
		err := s.searches.Record(ctx, searchlogs.RecordInput{
			UserID:  input.ActorID,
			Query:   input.Filters.Query,
			Filters: input.Filters.applied(),
		})
		if err != nil {
			s.logg.Error(ctx, "products.search_log_failed", err)
		}
	}

	page := pagination.Build(rows, input.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	out := pagination.Page[ProductDTO]{Items: make([]ProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, p := range page.Items {
		out.Items = append(out.Items, mapProduct(p))
	}
	return &out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	dto := mapProduct(*product)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, role enums.Role, form ProductForm, files []*multipart.FileHeader) (*ProductDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	fields, err := form.parse(true)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, fields); err != nil {
		return nil, err
	}

	images, err := s.media.UploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          *fields.name,
		Slug:          *fields.slug,
		Brand:         fields.brand,
		CategoryID:    *fields.categoryID,
		SubcategoryID: fields.subcategoryID,
		Price:         *fields.price,
		PreviousPrice: fields.previousPrice,
		Images:        datatypes.JSONSlice[string](images),
	}
	if fields.description != nil {
		product.Description = *fields.description
	}
	if fields.stock != nil {
		product.Stock = *fields.stock
	}
	if fields.variants != nil {
		product.Variants = datatypes.JSONSlice[models.Variant](*fields.variants)
	}
	if fields.tags != nil {
		product.Tags = datatypes.JSONSlice[string](*fields.tags)
	}
	if fields.featured != nil {
		product.IsFeatured = *fields.featured
	}
	if fields.trending != nil {
		product.IsTrending = *fields.trending
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImages(ctx, images)
		return nil, mapWriteError(err)
	}
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies the sent fields. Uploaded files replace the whole
// image list; the previous objects are removed once the row is saved.
func (s *service) UpdateProduct(ctx context.Context, role enums.Role, id uuid.UUID, form ProductForm, files []*multipart.FileHeader) (*ProductDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	fields, err := form.parse(false)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, fields); err != nil {
		return nil, err
	}

	updates := fields.updates()
	var images []string
	if len(files) > 0 {
		images, err = s.media.UploadImages(ctx, files)
		if err != nil {
			return nil, err
		}
		updates["images"] = datatypes.JSONSlice[string](images)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			s.discardImages(ctx, images)
			return nil, mapWriteError(err)
		}
	}
	if len(images) > 0 {
		s.discardImages(ctx, existing.Images)
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, role enums.Role, id uuid.UUID) error {
	if err := auth.RequireAdmin(role); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return pkgerrors.FromStore(err, "product not found", "load product")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.discardImages(ctx, existing.Images)
	return nil
}

func (s *service) checkReferences(ctx context.Context, fields productFields) error {
	problems := map[string]string{}
	if fields.categoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *fields.categoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
		}
		if !ok {
			problems["category_id"] = "unknown category"
		}
	}
	if fields.subcategoryID != nil {
		ok, err := s.repo.SubcategoryExists(ctx, *fields.subcategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check subcategory")
		}
		if !ok {
			problems["subcategory_id"] = "unknown subcategory"
		}
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(problems)
	}
	return nil
}

// discardImages removes stored objects that no row references. Failures are
// logged only; the catalog write already decided the outcome.
func (s *service) discardImages(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := s.media.DeleteImages(ctx, urls); err != nil {
		s.logg.Error(ctx, "products.image_cleanup_failed", err)
	}
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "products_slug_key") {
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
}
