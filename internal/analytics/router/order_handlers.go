package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/analytics/types"
	"github.com/angelmondragon/storefront-backend/internal/analytics/writer"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type orderPlacedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderPlacedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"order_id": event.OrderID.String(),
		"user_id":  event.UserID.String(),
	})

	row, err := baseRow(envelope, event.OrderID.String(), event.UserID.String(), event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order event row", err)
		return err
	}
	row.PaymentMethod = stringPtr(event.PaymentMethod)
	row.ItemCount = int64Ptr(int64(event.ItemCount))
	row.TotalCents = int64Ptr(event.TotalAmount.Shift(2).Round(0).IntPart())
	row.FromCart = &event.FromCart

	return insertRow(logCtx, h.writer, h.logg, row)
}

type orderStatusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderStatusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"order_id": event.OrderID.String(),
		"status":   string(event.Status),
	})

	row, err := baseRow(envelope, event.OrderID.String(), event.UserID.String(), event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order event row", err)
		return err
	}
	row.Status = stringPtr(string(event.Status))

	return insertRow(logCtx, h.writer, h.logg, row)
}

type orderCancelledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderCancelledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithField(ctx, "order_id", event.OrderID.String())

	row, err := baseRow(envelope, event.OrderID.String(), event.UserID.String(), event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order event row", err)
		return err
	}
	if !event.CancelledAt.IsZero() {
		row.OccurredAt = event.CancelledAt.UTC()
	}

	return insertRow(logCtx, h.writer, h.logg, row)
}

func baseRow(envelope types.Envelope, orderID, userID string, event any) (types.OrderEventRow, error) {
	payload, err := writer.EncodeJSON(event)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	return types.OrderEventRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  envelope.OccurredAt.UTC(),
		OrderID:     orderID,
		UserID:      userID,
		ActorUserID: stringPtr(envelope.ActorUserID),
		Payload:     payload,
	}, nil
}

func insertRow(ctx context.Context, w Writer, logg *logger.Logger, row types.OrderEventRow) error {
	if err := w.InsertOrderEvent(ctx, row); err != nil {
		logg.Error(ctx, "failed to insert order event row", err)
		return err
	}
	logg.Info(ctx, "order event row inserted")
	return nil
}

func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func int64Ptr(value int64) *int64 {
	return &value
}
