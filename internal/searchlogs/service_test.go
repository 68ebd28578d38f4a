package searchlogs

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, svc.Record(ctx, RecordInput{UserID: &userID, Query: "  Running Shoes ", Filters: map[string]any{"featured": true}}))
	require.NoError(t, svc.Record(ctx, RecordInput{Query: "hat"}))
	require.NoError(t, svc.Record(ctx, RecordInput{Query: "   "}))

	_, err = svc.List(ctx, enums.RoleUser, ListParams{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	page, err := svc.List(ctx, enums.RoleAdmin, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	filtered, err := svc.List(ctx, enums.RoleAdmin, ListParams{Query: "SHOES"})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, "Running Shoes", filtered.Items[0].Query)
	require.Equal(t, userID, *filtered.Items[0].UserID)
	require.Equal(t, true, filtered.Items[0].FiltersApplied["featured"])

	deleted, err := repo.DeleteBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)
}
