package sla

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
	"laundry-system/internal/store"
)

// Thresholds maps a status to its allowed dwell time in minutes. Statuses
// absent from the table are exempt and never produce alerts.
type Thresholds map[domain.Status]int

// DefaultThresholds are the built-in dwell limits. received, ready and
// delivered are boundary/terminal stages and carry none.
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.StatusSorting: 45,
		domain.StatusWashing: 120,
		domain.StatusDrying:  90,
		domain.StatusIroning: 60,
		domain.StatusShipped: 1440,
	}
}

// Merge applies per-status overrides (minutes, keyed by status name) on top
// of t and returns the result. Unknown status names are rejected.
func (t Thresholds) Merge(overrides map[string]int) (Thresholds, error) {
	out := Thresholds{}
	for k, v := range t {
		out[k] = v
	}
	for name, minutes := range overrides {
		st := domain.Status(name)
		if !st.Valid() || !st.SLABound() {
			return nil, fmt.Errorf("sla threshold for %q: status is not SLA-bound", name)
		}
		if minutes <= 0 {
			return nil, fmt.Errorf("sla threshold for %q must be positive", name)
		}
		out[st] = minutes
	}
	return out, nil
}

// Alert is one overdue order, ready for operator triage.
type Alert struct {
	OrderID         uuid.UUID     `json:"order_id"`
	OrderNumber     string        `json:"order_number"`
	Status          domain.Status `json:"status"`
	Since           time.Time     `json:"since"`
	MinutesInSector int           `json:"minutes_in_sector"`
	ExcessMinutes   int           `json:"excess_minutes"`
}

// Compute derives alerts from order state alone; nothing is persisted and
// acknowledgements never suppress recurrence. Dwell time is measured from the
// most recent event, or creation time when the order has none. The result is
// sorted worst breach first (excess descending, ties stable).
func Compute(orders []domain.Order, th Thresholds, now time.Time) []Alert {
	var alerts []Alert
	for _, o := range orders {
		threshold, ok := th[o.Status]
		if !ok {
			continue
		}
		since := o.LastActivity()
		minutes := int(now.Sub(since).Minutes())
		if minutes <= threshold {
			continue
		}
		alerts = append(alerts, Alert{
			OrderID:         o.ID,
			OrderNumber:     o.Number,
			Status:          o.Status,
			Since:           since,
			MinutesInSector: minutes,
			ExcessMinutes:   minutes - threshold,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].ExcessMinutes > alerts[j].ExcessMinutes
	})
	return alerts
}

// Engine computes alerts fresh on every call against the store.
type Engine struct {
	store      store.Store
	thresholds Thresholds
	now        func() time.Time
}

func NewEngine(st store.Store, th Thresholds) *Engine {
	if th == nil {
		th = DefaultThresholds()
	}
	return &Engine{store: st, thresholds: th, now: func() time.Time { return time.Now().UTC() }}
}

// Alerts returns the unit's current breaches, worst first. A read failure
// propagates: a broken query must not masquerade as "no alerts".
func (e *Engine) Alerts(ctx context.Context, unitID uuid.UUID) ([]Alert, error) {
	orders, err := e.store.QueryOrders(ctx, unitID, domain.SLAStatuses...)
	if err != nil {
		return nil, fmt.Errorf("sla query: %w", err)
	}
	return Compute(orders, e.thresholds, e.now()), nil
}
