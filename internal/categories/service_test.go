package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()))
	require.NoError(t, err)
	return svc
}

func TestCategoryMutationsRequireAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, enums.RoleUser, CreateCategoryInput{Name: "Shoes", Slug: "shoes"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	// role is checked before input
	_, err = svc.UpdateCategory(ctx, enums.RoleUser, uuid.New(), UpdateCategoryInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.True(t, pkgerrors.IsCode(svc.DeleteCategory(ctx, enums.RoleUser, uuid.New()), pkgerrors.CodeForbidden))
	_, err = svc.CreateSubcategory(ctx, enums.RoleUser, CreateSubcategoryInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestCategoryCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, enums.RoleAdmin, CreateCategoryInput{Name: " Shoes ", Slug: " Shoes "})
	require.NoError(t, err)
	require.Equal(t, "Shoes", created.Name)
	require.Equal(t, "shoes", created.Slug)

	_, err = svc.CreateCategory(ctx, enums.RoleAdmin, CreateCategoryInput{Name: "Other", Slug: "shoes"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	desc := "Footwear"
	updated, err := svc.UpdateCategory(ctx, enums.RoleAdmin, created.ID, UpdateCategoryInput{Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	require.Equal(t, "Footwear", *updated.Description)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteCategory(ctx, enums.RoleAdmin, created.ID))
	_, err = svc.GetCategory(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(svc.DeleteCategory(ctx, enums.RoleAdmin, created.ID), pkgerrors.CodeNotFound))
}

func TestSubcategoryOptionalParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orphan, err := svc.CreateSubcategory(ctx, enums.RoleAdmin, CreateSubcategoryInput{Name: "Sale", Slug: "sale"})
	require.NoError(t, err)
	require.Nil(t, orphan.CategoryID)

	missing := uuid.New()
	_, err = svc.CreateSubcategory(ctx, enums.RoleAdmin, CreateSubcategoryInput{CategoryID: &missing, Name: "X", Slug: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	parent, err := svc.CreateCategory(ctx, enums.RoleAdmin, CreateCategoryInput{Name: "Shoes", Slug: "shoes"})
	require.NoError(t, err)
	child, err := svc.CreateSubcategory(ctx, enums.RoleAdmin, CreateSubcategoryInput{CategoryID: &parent.ID, Name: "Boots", Slug: "boots"})
	require.NoError(t, err)
	require.NotNil(t, child.Category)
	require.Equal(t, parent.ID, child.Category.ID)

	filtered, err := svc.ListSubcategories(ctx, &parent.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	all, err := svc.ListSubcategories(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	detached, err := svc.UpdateSubcategory(ctx, enums.RoleAdmin, child.ID, UpdateSubcategoryInput{ClearCategory: true})
	require.NoError(t, err)
	require.Nil(t, detached.CategoryID)
}
