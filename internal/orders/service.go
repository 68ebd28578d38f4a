package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartTaker hands over and empties a user's cart inside an order transaction.
type CartTaker interface {
	TakeForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.CartLine, error)
}

type addressLookup interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*address.AddressDTO, error)
}

type notifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) error
}

// EventEmitter queues a domain event inside the caller's transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives order creation and the status state machine.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params ListParams) (*pagination.Page[OrderDTO], error)
	ListAll(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, role enums.Role, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo      Repository
	Tx        txRunner
	Carts     CartTaker
	Addresses addressLookup
	Notifier  notifier
	Events    EventEmitter
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	carts     CartTaker
	addresses addressLookup
	notifier  notifier
	events    EventEmitter
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service. Events and Metrics may be nil.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		carts:     deps.Carts,
		addresses: deps.Addresses,
		notifier:  deps.Notifier,
		events:    deps.Events,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		now:       time.Now,
	}, nil
}

// Create places a pending order. With FromCart the cart lines become the
// order items and the cart is emptied in the same transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.FromCart && len(input.Items) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items and from_cart are mutually exclusive")
	}
	if !input.FromCart && len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items required")
	}
	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if !input.TotalAmount.IsPositive() || paymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount and payment method required")
	}

	shipTo, err := s.shippingAddress(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		TotalAmount:     input.TotalAmount.Round(2),
		ShippingAddress: datatypes.NewJSONType(shipTo),
		PaymentMethod:   paymentMethod,
		PlacedAt:        s.now().UTC(),
	}

	if !input.FromCart {
		items, err := mergeItems(input.Items)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.FromCart {
			lines, err := s.carts.TakeForOrder(ctx, tx, userID)
			if err != nil {
				return err
			}
			order.Items = make(datatypes.JSONSlice[models.OrderItem], 0, len(lines))
			for _, line := range lines {
				order.Items = append(order.Items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
			}
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return s.emit(ctx, tx, userID, enums.EventOrderPlaced, order.ID, payloads.OrderPlacedEvent{
			OrderID:       order.ID,
			UserID:        userID,
			ItemCount:     len(order.Items),
			TotalAmount:   order.TotalAmount,
			PaymentMethod: order.PaymentMethod,
			FromCart:      input.FromCart,
			PlacedAt:      order.PlacedAt,
		})
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "cart not found", "create order")
	}

	s.metrics.IncTransition(string(order.Status))
	s.notify(ctx, order.UserID, order.ID, "Order placed", "We received your order.")

	dto := mapOrder(*order)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.Role, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order not found", "load order")
	}
	if order.UserID != userID && !role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	dto := mapOrder(*order)
	return &dto, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params ListParams) (*pagination.Page[OrderDTO], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.list(ctx, &userID, params)
}

func (s *service) ListAll(ctx context.Context, role enums.Role, params ListParams) (*pagination.Page[OrderDTO], error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	return s.list(ctx, nil, params)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, params ListParams) (*pagination.Page[OrderDTO], error) {
	pageParams := pagination.Params{Limit: params.Limit, Cursor: params.Cursor}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, userID, params.Status, pageParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.Build(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.PlacedAt, ID: o.ID}
	})
	out := pagination.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, o := range page.Items {
		out.Items = append(out.Items, mapOrder(o))
	}
	return &out, nil
}

// UpdateStatus lets an admin move an order to any status. delivered stamps
// delivered_at; every other status clears it.
func (s *service) UpdateStatus(ctx context.Context, role enums.Role, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"allowed": enums.OrderStatusValues()})
	}

	var deliveredAt *time.Time
	if status == enums.OrderStatusDelivered {
		now := s.now().UTC()
		deliveredAt = &now
	}
	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.SetStatus(ctx, orderID, status, deliveredAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, uuid.Nil, enums.EventOrderStatusChanged, order.ID, payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			Status:      status,
			DeliveredAt: deliveredAt,
		})
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order not found", "update order status")
	}
	s.metrics.IncTransition(string(status))
	s.notify(ctx, order.UserID, order.ID, "Order status updated", fmt.Sprintf("Your order is now %s.", status))

	dto := mapOrder(*order)
	return &dto, nil
}

// Cancel lets the owner cancel while the order is pending or processing.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order not found", "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cancelled, err := repo.CancelIfCancellable(ctx, orderID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot cancel order at this stage")
		}
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, userID, enums.EventOrderCancelled, order.ID, payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			CancelledAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order not found", "cancel order")
	}
	s.metrics.IncTransition(string(enums.OrderStatusCancelled))
	s.notify(ctx, order.UserID, order.ID, "Order cancelled", "Your order was cancelled.")

	dto := mapOrder(*order)
	return &dto, nil
}

func (s *service) shippingAddress(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (types.ShippingAddress, error) {
	hasInline := input.ShippingAddress != nil && !input.ShippingAddress.IsZero()
	switch {
	case hasInline && input.AddressID != nil:
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping_address and address_id are mutually exclusive")
	case input.AddressID != nil:
		saved, err := s.addresses.Get(ctx, userID, *input.AddressID)
		if err != nil {
			return types.ShippingAddress{}, err
		}
		return saved.Snapshot(), nil
	case hasInline:
		return input.ShippingAddress.Normalize(), nil
	default:
		return types.ShippingAddress{}, nil
	}
}

// mergeItems folds repeated products into one line.
func mergeItems(items []OrderItemInput) (datatypes.JSONSlice[models.OrderItem], error) {
	out := make(datatypes.JSONSlice[models.OrderItem], 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a product_id and a quantity of at least 1")
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, models.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out, nil
}

// emit queues an order event in tx. actor is uuid.Nil for admin-driven changes.
func (s *service) emit(ctx context.Context, tx *gorm.DB, actor uuid.UUID, eventType enums.OutboxEventType, orderID uuid.UUID, data any) error {
	if s.events == nil {
		return nil
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          data,
		OccurredAt:    s.now().UTC(),
	}
	if actor != uuid.Nil {
		event.Actor = &outbox.ActorRef{UserID: actor, Role: string(enums.RoleUser)}
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
	}
	return nil
}

// notify is best effort: the order change has already been committed.
func (s *service) notify(ctx context.Context, userID, orderID uuid.UUID, title, message string) {
	link := "/orders/" + orderID.String()
	err := s.notifier.Notify(ctx, notifications.NotifyInput{
		UserID:  userID,
		Title:   title,
		Message: message,
		Link:    &link,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", orderID.String()), "orders.notify_failed", err)
	}
}
