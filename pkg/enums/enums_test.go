package enums

import "testing"

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Admin ")
	if err != nil || role != RoleAdmin {
		t.Fatalf("expected admin, got %q err=%v", role, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestOrderStatusCancellable(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
	}
	for status, want := range cases {
		if got := status.Cancellable(); got != want {
			t.Fatalf("%s: expected cancellable=%v got %v", status, want, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("returned"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	status, err := ParseOrderStatus("SHIPPED")
	if err != nil || status != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q err=%v", status, err)
	}
	if len(OrderStatusValues()) != 5 {
		t.Fatalf("expected five statuses")
	}
}
