package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. Amount and status
// columns are only populated by the events that carry them.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       string             `bigquery:"order_id"`
	UserID        string             `bigquery:"user_id"`
	ActorUserID   *string            `bigquery:"actor_user_id"`
	Status        *string            `bigquery:"status"`
	PaymentMethod *string            `bigquery:"payment_method"`
	ItemCount     *int64             `bigquery:"item_count"`
	TotalCents    *int64             `bigquery:"total_cents"`
	FromCart      *bool              `bigquery:"from_cart"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}
