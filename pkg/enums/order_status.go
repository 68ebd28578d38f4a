package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks where an order is in fulfilment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// CancellableOrderStatuses lists the states an owner may cancel from.
var CancellableOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusProcessing}

// IsValid checks whether the status matches the canonical enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Cancellable reports whether an owner may still cancel from this state.
func (s OrderStatus) Cancellable() bool {
	for _, candidate := range CancellableOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw strings into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatusValues returns the canonical statuses as strings.
func OrderStatusValues() []string {
	out := make([]string, len(validOrderStatuses))
	for i, s := range validOrderStatuses {
		out[i] = string(s)
	}
	return out
}
