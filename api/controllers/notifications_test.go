package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*pagination.Page[notifications.NotificationDTO], error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) Notify(context.Context, notifications.NotifyInput) error {
	return nil
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*pagination.Page[notifications.NotificationDTO], error) {
	return s.listFn(ctx, params)
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.markReadFn(ctx, userID, notificationID)
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(_ context.Context, params notifications.ListParams) (*pagination.Page[notifications.NotificationDTO], error) {
			assert.Equal(t, userID, params.UserID)
			assert.True(t, params.UnreadOnly)
			assert.Equal(t, pagination.DefaultLimit, params.Limit)
			return &pagination.Page[notifications.NotificationDTO]{Items: []notifications.NotificationDTO{}}, nil
		},
	}
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread_only=true", nil), userID, enums.RoleUser)
	resp := httptest.NewRecorder()

	ListNotifications(svc, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=1000", nil), uuid.New(), enums.RoleUser)
	resp := httptest.NewRecorder()

	ListNotifications(&testNotificationsService{}, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(_ context.Context, uid, nid uuid.UUID) error {
			called = true
			assert.Equal(t, userID, uid)
			assert.Equal(t, notificationID, nid)
			return nil
		},
	}
	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+notificationID.String()+"/read", nil), userID, enums.RoleUser)
	req = addRouteParam(req, "id", notificationID.String())
	resp := httptest.NewRecorder()

	MarkNotificationRead(svc, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, called)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	id := uuid.NewString()
	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+id+"/read", nil), uuid.New(), enums.RoleUser)
	req = addRouteParam(req, "id", id)
	resp := httptest.NewRecorder()

	MarkNotificationRead(svc, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMarkAllNotificationsReadReturnsCount(t *testing.T) {
	svc := &testNotificationsService{
		markAllReadFn: func(context.Context, uuid.UUID) (int64, error) { return 4, nil },
	}
	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/read-all", nil), uuid.New(), enums.RoleUser)
	resp := httptest.NewRecorder()

	MarkAllNotificationsRead(svc, logger.Nop())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var env struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, int64(4), env.Data["updated"])
}
