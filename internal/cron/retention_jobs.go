package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	NotificationCleanupJobName = "notification-cleanup"
	SearchLogRetentionJobName  = "search-log-retention"
	OutboxCleanupJobName       = "outbox-cleanup"

	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultSearchLogRetention    = 90 * 24 * time.Hour
	defaultOutboxRetention       = 7 * 24 * time.Hour
)

type notificationsCleanupRepo interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type searchLogsCleanupRepo interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type outboxCleanupRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// retentionJob deletes rows older than now minus retention.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	retention time.Duration
	purge     func(ctx context.Context, cutoff time.Time) (int64, error)
	now       func() time.Time
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository notificationsCleanupRepo
	Retention  time.Duration
}

// NewNotificationCleanupJob removes notifications that were read more than
// Retention ago. Unread notifications are kept regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newRetentionJob(NotificationCleanupJobName, params.Logger, params.Retention, defaultNotificationRetention, params.Repository.DeleteReadBefore)
}

type SearchLogRetentionJobParams struct {
	Logger     *logger.Logger
	Repository searchLogsCleanupRepo
	Retention  time.Duration
}

func NewSearchLogRetentionJob(params SearchLogRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("search logs repository required")
	}
	return newRetentionJob(SearchLogRetentionJobName, params.Logger, params.Retention, defaultSearchLogRetention, params.Repository.DeleteBefore)
}

type OutboxCleanupJobParams struct {
	Logger     *logger.Logger
	Repository outboxCleanupRepo
	Retention  time.Duration
}

// NewOutboxCleanupJob prunes outbox rows that were published more than
// Retention ago. Unpublished and parked rows stay.
func NewOutboxCleanupJob(params OutboxCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newRetentionJob(OutboxCleanupJobName, params.Logger, params.Retention, defaultOutboxRetention, params.Repository.DeletePublishedBefore)
}

func newRetentionJob(name string, logg *logger.Logger, retention, fallback time.Duration, purge func(context.Context, time.Time) (int64, error)) (*retentionJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retention <= 0 {
		retention = fallback
	}
	return &retentionJob{
		name:      name,
		logg:      logg,
		retention: retention,
		purge:     purge,
		now:       time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, j.name+" complete")
	return nil
}
