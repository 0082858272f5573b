package production

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
	"laundry-system/internal/store"
)

// fakeStore is an in-memory store.Store for state machine tests. Failure
// injection per method via the fail map.
type fakeStore struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*domain.Order
	events  []domain.OrderEvent
	details map[uuid.UUID]domain.SectorDetail // event id -> detail
	fail    map[string]error
}

func newFakeStore(orders ...*domain.Order) *fakeStore {
	f := &fakeStore{
		orders:  map[uuid.UUID]*domain.Order{},
		details: map[uuid.UUID]domain.SectorDetail{},
		fail:    map[string]error{},
	}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID, unitID uuid.UUID, from, to domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["update"]; err != nil {
		return err
	}
	o, ok := f.orders[orderID]
	if !ok || o.UnitID != unitID {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrStatusConflict
	}
	o.Status = to
	return nil
}

func (f *fakeStore) AppendEvent(_ context.Context, ev domain.OrderEvent) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["event"]; err != nil {
		return uuid.Nil, err
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	f.events = append(f.events, ev)
	return ev.ID, nil
}

func (f *fakeStore) AppendSectorDetail(_ context.Context, eventID uuid.UUID, d domain.SectorDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["detail"]; err != nil {
		return err
	}
	f.details[eventID] = d
	return nil
}

func (f *fakeStore) AssignItemRecipes(_ context.Context, orderID uuid.UUID, assignments map[uuid.UUID]uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["recipes"]; err != nil {
		return err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	for i := range o.Items {
		if recipeID, ok := assignments[o.Items[i].ID]; ok {
			r := recipeID
			o.Items[i].RecipeID = &r
		}
	}
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID, unitID uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.UnitID != unitID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

func (f *fakeStore) QueryOrders(_ context.Context, unitID uuid.UUID, statuses ...domain.Status) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["query"]; err != nil {
		return nil, err
	}
	var out []domain.Order
	for _, o := range f.orders {
		if o.UnitID != unitID {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CountByStatus(_ context.Context, unitID uuid.UUID) (map[domain.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.Status]int{}
	for _, o := range f.orders {
		if o.UnitID == unitID {
			out[o.Status]++
		}
	}
	return out, nil
}

func (f *fakeStore) ProcessedSince(_ context.Context, unitID uuid.UUID, since time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events, pieces int
	for _, ev := range f.events {
		if ev.UnitID == unitID && ev.EventType == domain.EventExit && ev.ProcessedQty != nil && !ev.OccurredAt.Before(since) {
			events++
			pieces += *ev.ProcessedQty
		}
	}
	return events, pieces, nil
}

func (f *fakeStore) DailyCompletions(context.Context, uuid.UUID, time.Time) ([]store.Completion, error) {
	return nil, nil
}

func (f *fakeStore) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
