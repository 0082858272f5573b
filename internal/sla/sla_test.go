package sla

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
	"laundry-system/internal/store"
)

var testThresholds = Thresholds{
	domain.StatusSorting: 45,
	domain.StatusWashing: 120,
	domain.StatusDrying:  90,
	domain.StatusIroning: 60,
	domain.StatusShipped: 1440,
}

func orderIn(status domain.Status, created time.Time) domain.Order {
	return domain.Order{ID: uuid.New(), Number: "U1-0001", UnitID: uuid.New(), Status: status, CreatedAt: created}
}

func TestComputeThresholdBoundary(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	o := orderIn(domain.StatusWashing, created) // threshold 120 min, no events

	// One minute over: alerted with excess 1.
	alerts := Compute([]domain.Order{o}, testThresholds, created.Add(121*time.Minute))
	if len(alerts) != 1 {
		t.Fatalf("at T+121 got %d alerts, want 1", len(alerts))
	}
	if alerts[0].MinutesInSector != 121 || alerts[0].ExcessMinutes != 1 {
		t.Errorf("alert = %d/%d minutes, want 121/1", alerts[0].MinutesInSector, alerts[0].ExcessMinutes)
	}

	// Under and exactly at the threshold: absent.
	for _, at := range []time.Duration{119 * time.Minute, 120 * time.Minute} {
		if got := Compute([]domain.Order{o}, testThresholds, created.Add(at)); len(got) != 0 {
			t.Errorf("at T+%v got %d alerts, want 0", at, len(got))
		}
	}
}

func TestComputeUsesMostRecentEvent(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	o := orderIn(domain.StatusDrying, created)
	o.Events = []domain.OrderEvent{
		{Sector: domain.SectorWashing, EventType: domain.EventExit, OccurredAt: created.Add(3 * time.Hour)},
	}

	// 4h after creation but only 1h after the washing exit: under the 90 min
	// drying threshold.
	if got := Compute([]domain.Order{o}, testThresholds, created.Add(4*time.Hour)); len(got) != 0 {
		t.Fatalf("got %d alerts, want 0 (dwell counts from last event)", len(got))
	}
	alerts := Compute([]domain.Order{o}, testThresholds, created.Add(3*time.Hour+91*time.Minute))
	if len(alerts) != 1 || alerts[0].ExcessMinutes != 1 {
		t.Fatalf("alerts = %+v, want one with excess 1", alerts)
	}
}

func TestComputeOrderingWorstFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	mild := orderIn(domain.StatusWashing, now.Add(-125*time.Minute))   // excess 5
	worst := orderIn(domain.StatusDrying, now.Add(-290*time.Minute))   // excess 200
	middle := orderIn(domain.StatusIroning, now.Add(-100*time.Minute)) // excess 40

	alerts := Compute([]domain.Order{mild, worst, middle}, testThresholds, now)
	if len(alerts) != 3 {
		t.Fatalf("got %d alerts, want 3", len(alerts))
	}
	want := []uuid.UUID{worst.ID, middle.ID, mild.ID}
	for i, id := range want {
		if alerts[i].OrderID != id {
			t.Errorf("alerts[%d] = excess %d, wrong order", i, alerts[i].ExcessMinutes)
		}
	}
}

func TestComputeStableTies(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	first := orderIn(domain.StatusWashing, now.Add(-130*time.Minute))
	second := orderIn(domain.StatusWashing, now.Add(-130*time.Minute))

	alerts := Compute([]domain.Order{first, second}, testThresholds, now)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].OrderID != first.ID || alerts[1].OrderID != second.ID {
		t.Error("equal excess did not preserve input order")
	}
}

func TestComputeSkipsUnthresholdedStatuses(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	ancient := now.Add(-48 * time.Hour)
	orders := []domain.Order{
		orderIn(domain.StatusReceived, ancient),
		orderIn(domain.StatusReady, ancient),
		orderIn(domain.StatusDelivered, ancient),
	}
	if got := Compute(orders, testThresholds, now); len(got) != 0 {
		t.Errorf("got %d alerts for exempt statuses, want 0", len(got))
	}
}

func TestComputeMonotonicWithoutEvents(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	o := orderIn(domain.StatusWashing, created)
	prev := -1
	for _, at := range []time.Duration{121 * time.Minute, 150 * time.Minute, 300 * time.Minute} {
		alerts := Compute([]domain.Order{o}, testThresholds, created.Add(at))
		if len(alerts) != 1 {
			t.Fatalf("at T+%v got %d alerts", at, len(alerts))
		}
		if alerts[0].MinutesInSector <= prev {
			t.Errorf("minutesInSector went from %d to %d", prev, alerts[0].MinutesInSector)
		}
		prev = alerts[0].MinutesInSector
	}
}

func TestMergeOverrides(t *testing.T) {
	base := DefaultThresholds()
	merged, err := base.Merge(map[string]int{"washing": 200})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged[domain.StatusWashing] != 200 {
		t.Errorf("washing threshold = %d, want 200", merged[domain.StatusWashing])
	}
	if merged[domain.StatusDrying] != base[domain.StatusDrying] {
		t.Error("Merge() dropped an untouched threshold")
	}

	if _, err := base.Merge(map[string]int{"ready": 30}); err == nil {
		t.Error("Merge() accepted a non-SLA status")
	}
	if _, err := base.Merge(map[string]int{"washing": 0}); err == nil {
		t.Error("Merge() accepted a zero threshold")
	}
}

// alertStore serves QueryOrders from memory; other methods are unused here.
type alertStore struct {
	store.Store
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (a *alertStore) QueryOrders(_ context.Context, unitID uuid.UUID, statuses ...domain.Status) ([]domain.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	var out []domain.Order
	for _, o := range a.orders {
		if o.UnitID != unitID {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func TestEngineAlerts(t *testing.T) {
	unitID := uuid.New()
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	overdue := domain.Order{ID: uuid.New(), UnitID: unitID, Status: domain.StatusWashing, CreatedAt: created}

	e := NewEngine(&alertStore{orders: []domain.Order{overdue}}, testThresholds)
	e.now = func() time.Time { return created.Add(121 * time.Minute) }

	alerts, err := e.Alerts(context.Background(), unitID)
	if err != nil {
		t.Fatalf("Alerts() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].OrderID != overdue.ID {
		t.Fatalf("alerts = %+v, want the overdue order", alerts)
	}

	// Idempotence: no mutation in between, same set.
	again, err := e.Alerts(context.Background(), unitID)
	if err != nil || len(again) != 1 || again[0] != alerts[0] {
		t.Errorf("second call = %+v, %v; want identical result", again, err)
	}
}

func TestEngineAlertsPropagatesReadFailure(t *testing.T) {
	e := NewEngine(&alertStore{err: errors.New("connection refused")}, nil)
	if _, err := e.Alerts(context.Background(), uuid.New()); err == nil {
		t.Fatal("Alerts() swallowed a read failure; must not read as no alerts")
	}
}
