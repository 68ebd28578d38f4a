package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*service, Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc.(*service), repo
}

func TestNotifyAndListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, NotifyInput{UserID: userID, Title: "Order placed", Message: "msg"}))
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, svc.Notify(ctx, NotifyInput{UserID: uuid.New(), Title: "Other"}))

	page, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	require.True(t, !page.Items[0].CreatedAt.Before(page.Items[1].CreatedAt))

	next, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	require.Empty(t, next.NextCursor)
}

func TestNotifyRequiresTitle(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Notify(context.Background(), NotifyInput{UserID: uuid.New(), Title: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkReadScopesToOwner(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	record := &models.Notification{UserID: owner, Title: "Shipped"}
	require.NoError(t, repo.Create(ctx, record))

	err := svc.MarkRead(ctx, uuid.New(), record.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.MarkRead(ctx, owner, record.ID))
	// already read is not an error
	require.NoError(t, svc.MarkRead(ctx, owner, record.ID))

	page, err := svc.List(ctx, ListParams{UserID: owner, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestMarkAllReadAndCleanup(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: owner, Title: "n"}))
	}

	past := time.Now().UTC().Add(-48 * time.Hour)
	svc.now = func() time.Time { return past }
	count, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	deleted, err := repo.DeleteReadBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)
}
