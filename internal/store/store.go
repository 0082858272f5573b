package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
)

// Store is the contract over the persistence backend. It is the single source
// of truth: no component caches write-through state on top of it.
type Store interface {
	// UpdateOrderStatus performs a compare-and-swap transition scoped by both
	// order id and unit id. Returns domain.ErrOrderNotFound when nothing
	// matches the id+unit scope and domain.ErrStatusConflict when the order
	// exists but is no longer in the expected source status.
	UpdateOrderStatus(ctx context.Context, orderID, unitID uuid.UUID, from, to domain.Status) error

	// AppendEvent appends an immutable audit record and returns its id.
	AppendEvent(ctx context.Context, ev domain.OrderEvent) (uuid.UUID, error)

	// AppendSectorDetail attaches the structured per-sector record to an
	// exit event.
	AppendSectorDetail(ctx context.Context, eventID uuid.UUID, d domain.SectorDetail) error

	// AssignItemRecipes binds a processing recipe to each given item. Only
	// meaningful during the sorting stage.
	AssignItemRecipes(ctx context.Context, orderID uuid.UUID, assignments map[uuid.UUID]uuid.UUID) error

	// GetOrder fetches one order under the id+unit scope, without items or
	// events. Returns domain.ErrOrderNotFound when nothing matches.
	GetOrder(ctx context.Context, orderID, unitID uuid.UUID) (domain.Order, error)

	// QueryOrders returns the unit's orders in the given statuses (all
	// statuses when none given), with items and events joined in. Orders are
	// sorted by created_at ascending, events by occurred_at ascending.
	QueryOrders(ctx context.Context, unitID uuid.UUID, statuses ...domain.Status) ([]domain.Order, error)

	// CountByStatus reports how many orders sit in each status right now.
	CountByStatus(ctx context.Context, unitID uuid.UUID) (map[domain.Status]int, error)

	// ProcessedSince counts exit events carrying a processed quantity in the
	// trailing window starting at since, and the total pieces they report.
	ProcessedSince(ctx context.Context, unitID uuid.UUID, since time.Time) (events int, pieces int, err error)

	// DailyCompletions lists promised-vs-actual completion pairs for orders
	// that finished processing (left ironing) on the given day.
	DailyCompletions(ctx context.Context, unitID uuid.UUID, day time.Time) ([]Completion, error)
}

// Completion pairs an order's promise with when processing actually finished.
type Completion struct {
	OrderID     uuid.UUID
	PromisedAt  time.Time
	CompletedAt time.Time
}

// Notifier publishes change notifications after successful mutations. The
// live displays consume these; delivery is at-least-once and best-effort on
// the producing side.
type Notifier interface {
	NotifyChange(ctx context.Context, n domain.ChangeNotification) error
}
