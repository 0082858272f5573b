package domain

import (
	"time"

	"github.com/google/uuid"
)

// Change feed tables.
const (
	TableOrders = "orders"
	TableEvents = "order_events"
)

// ChangeNotification is the wire message on the change feed. Delivery is
// at-least-once and the payload carries scoping only: consumers must refetch,
// never trust the notification's content as state.
type ChangeNotification struct {
	UnitID     uuid.UUID `json:"unit_id"`
	Table      string    `json:"table"` // orders | order_events
	Op         string    `json:"op"`    // insert | update
	OccurredAt time.Time `json:"occurred_at"`
}
