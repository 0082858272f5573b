package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order is a unit of work moving through the facility. Created by the intake
// collaborator in status received; mutated only by the production service;
// never deleted (terminal orders stay for history and KPIs).
type Order struct {
	ID         uuid.UUID `json:"id"`
	Number     string    `json:"number"` // human-readable, sequential per unit
	UnitID     uuid.UUID `json:"unit_id"`
	ClientID   uuid.UUID `json:"client_id"`
	Status     Status    `json:"status"`
	PromisedAt time.Time `json:"promised_at"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Items  []OrderItem  `json:"items,omitempty"`
	Events []OrderEvent `json:"events,omitempty"`
}

// LastActivity is the timestamp SLA dwell time is measured from: the most
// recent event, or creation time when no event exists yet.
func (o Order) LastActivity() time.Time {
	since := o.CreatedAt
	for _, e := range o.Events {
		if e.OccurredAt.After(since) {
			since = e.OccurredAt
		}
	}
	return since
}

// OrderItem is a line item within an order: a category and piece count.
// Immutable after intake except for the recipe assigned during sorting.
type OrderItem struct {
	ID       uuid.UUID  `json:"id"`
	OrderID  uuid.UUID  `json:"order_id"`
	Category string     `json:"category"`
	Pieces   int        `json:"pieces"`
	RecipeID *uuid.UUID `json:"recipe_id,omitempty"`
}

// EventType classifies an order event.
type EventType string

const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
	EventAlert EventType = "alert"
)

// OrderEvent is an immutable, append-only audit record. Events are never
// updated or deleted.
type OrderEvent struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      uuid.UUID  `json:"order_id"`
	UnitID       uuid.UUID  `json:"unit_id"`
	Sector       Sector     `json:"sector"`
	EventType    EventType  `json:"event_type"`
	OperatorID   *uuid.UUID `json:"operator_id,omitempty"`
	EquipmentID  *uuid.UUID `json:"equipment_id,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ProcessedQty *int       `json:"processed_qty,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
