package categories

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service is the category/subcategory half of the catalog.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	CreateCategory(ctx context.Context, role enums.Role, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, role enums.Role, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, role enums.Role, id uuid.UUID) error

	ListSubcategories(ctx context.Context, categoryID *uuid.UUID) ([]SubcategoryDTO, error)
	GetSubcategory(ctx context.Context, id uuid.UUID) (*SubcategoryDTO, error)
	CreateSubcategory(ctx context.Context, role enums.Role, input CreateSubcategoryInput) (*SubcategoryDTO, error)
	UpdateSubcategory(ctx context.Context, role enums.Role, id uuid.UUID, input UpdateSubcategoryInput) (*SubcategoryDTO, error)
	DeleteSubcategory(ctx context.Context, role enums.Role, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "categories repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCategory(row))
	}
	return out, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "category not found", "load category")
	}
	dto := mapCategory(*category)
	return &dto, nil
}

func (s *service) CreateCategory(ctx context.Context, role enums.Role, input CreateCategoryInput) (*CategoryDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	slug := normalizeSlug(input.Slug)
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug are required")
	}

	category := &models.Category{Name: name, Slug: slug, Description: trimPtr(input.Description)}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, mapWriteError(err, "category")
	}
	dto := mapCategory(*category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, role enums.Role, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategory(ctx, id); err != nil {
		return nil, pkgerrors.FromStore(err, "category not found", "load category")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		updates["name"] = name
	}
	if input.Slug != nil {
		slug := normalizeSlug(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must not be blank")
		}
		updates["slug"] = slug
	}
	if input.Description != nil {
		updates["description"] = trimPtr(input.Description)
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
			return nil, mapWriteError(err, "category")
		}
	}
	return s.GetCategory(ctx, id)
}

func (s *service) DeleteCategory(ctx context.Context, role enums.Role, id uuid.UUID) error {
	if err := auth.RequireAdmin(role); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) ListSubcategories(ctx context.Context, categoryID *uuid.UUID) ([]SubcategoryDTO, error) {
	rows, err := s.repo.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subcategories")
	}
	out := make([]SubcategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSubcategory(row))
	}
	return out, nil
}

func (s *service) GetSubcategory(ctx context.Context, id uuid.UUID) (*SubcategoryDTO, error) {
	sub, err := s.repo.FindSubcategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "subcategory not found", "load subcategory")
	}
	dto := mapSubcategory(*sub)
	return &dto, nil
}

func (s *service) CreateSubcategory(ctx context.Context, role enums.Role, input CreateSubcategoryInput) (*SubcategoryDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	slug := normalizeSlug(input.Slug)
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug are required")
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	sub := &models.Subcategory{CategoryID: input.CategoryID, Name: name, Slug: slug}
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		return nil, mapWriteError(err, "subcategory")
	}
	return s.GetSubcategory(ctx, sub.ID)
}

func (s *service) UpdateSubcategory(ctx context.Context, role enums.Role, id uuid.UUID, input UpdateSubcategoryInput) (*SubcategoryDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindSubcategory(ctx, id); err != nil {
		return nil, pkgerrors.FromStore(err, "subcategory not found", "load subcategory")
	}

	updates := map[string]any{}
	switch {
	case input.ClearCategory:
		updates["category_id"] = nil
	case input.CategoryID != nil:
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		updates["name"] = name
	}
	if input.Slug != nil {
		slug := normalizeSlug(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must not be blank")
		}
		updates["slug"] = slug
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateSubcategory(ctx, id, updates); err != nil {
			return nil, mapWriteError(err, "subcategory")
		}
	}
	return s.GetSubcategory(ctx, id)
}

func (s *service) DeleteSubcategory(ctx context.Context, role enums.Role, id uuid.UUID) error {
	if err := auth.RequireAdmin(role); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteSubcategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete subcategory")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subcategory not found")
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategory(ctx, id); err != nil {
		return pkgerrors.FromStore(err, "category not found", "load category")
	}
	return nil
}

func mapWriteError(err error, entity string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, entity+" slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save "+entity)
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
