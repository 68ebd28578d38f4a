package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchLogRepo struct {
	cutoff time.Time
	err    error
}

func (f *fakeSearchLogRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestSearchLogRetentionUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeSearchLogRepo{}
	job, err := NewSearchLogRetentionJob(SearchLogRetentionJobParams{
		Logger:     logger.Nop(),
		Repository: repo,
		Retention:  48 * time.Hour,
	})
	require.NoError(t, err)
	job.(*retentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, SearchLogRetentionJobName, job.Name())
	assert.True(t, repo.cutoff.Equal(now.Add(-48*time.Hour)))
}

func TestRetentionJobPropagatesErrors(t *testing.T) {
	job, err := NewSearchLogRetentionJob(SearchLogRetentionJobParams{
		Logger:     logger.Nop(),
		Repository: &fakeSearchLogRepo{err: errors.New("boom")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "search-log-retention: boom")
	assert.Equal(t, defaultSearchLogRetention, job.(*retentionJob).retention)
}

func TestNotificationCleanupDeletesOnlyOldReadRows(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	rows := []models.Notification{
		{UserID: userID, Title: "old read", Message: "m", IsRead: true, ReadAt: &old, CreatedAt: old},
		{UserID: userID, Title: "old unread", Message: "m", CreatedAt: old},
		{UserID: userID, Title: "recent read", Message: "m", IsRead: true, ReadAt: &recent, CreatedAt: recent},
	}
	for i := range rows {
		require.NoError(t, client.DB().Create(&rows[i]).Error)
	}

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.Nop(),
		Repository: notifications.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	job.(*retentionJob).now = func() time.Time { return now }
	require.NoError(t, job.Run(ctx))

	var titles []string
	require.NoError(t, client.DB().Model(&models.Notification{}).Order("title").Pluck("title", &titles).Error)
	assert.Equal(t, []string{"old unread", "recent read"}, titles)
}

func TestOutboxCleanupKeepsPendingRows(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-10 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	rows := []models.OutboxEvent{
		{AggregateID: uuid.New(), PublishedAt: &old},
		{AggregateID: uuid.New(), PublishedAt: &recent},
		{AggregateID: uuid.New()},
	}
	for i := range rows {
		rows[i].EventType = enums.EventOrderPlaced
		rows[i].AggregateType = enums.AggregateOrder
		rows[i].Payload = []byte(`{}`)
		require.NoError(t, client.DB().Create(&rows[i]).Error)
	}

	job, err := NewOutboxCleanupJob(OutboxCleanupJobParams{
		Logger:     logger.Nop(),
		Repository: outbox.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	job.(*retentionJob).now = func() time.Time { return now }
	require.NoError(t, job.Run(ctx))

	var remaining []models.OutboxEvent
	require.NoError(t, client.DB().Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, row := range remaining {
		assert.NotEqual(t, rows[0].ID, row.ID)
	}
}
