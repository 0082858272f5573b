package liveview

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
)

func TestSectorQueueInitialFetch(t *testing.T) {
	unitID := uuid.New()
	fetcher := &fakeFetcher{orders: []domain.Order{boardOrder(unitID, domain.StatusWashing, time.Now())}}
	feed := &fakeFeed{}

	q := NewSectorQueue(unitID, domain.StatusWashing, fetcher, feed, nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	orders, lastUpdated := q.Snapshot()
	if len(orders) != 1 {
		t.Fatalf("got %d orders after Start, want 1", len(orders))
	}
	if lastUpdated.IsZero() {
		t.Error("lastUpdated not set")
	}
}

func TestSectorQueueRefetchOnNotification(t *testing.T) {
	unitID := uuid.New()
	fetcher := &fakeFetcher{}
	feed := &fakeFeed{}

	q := NewSectorQueue(unitID, domain.StatusDrying, fetcher, feed, nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	fetcher.set([]domain.Order{boardOrder(unitID, domain.StatusDrying, time.Now())}, nil)
	feed.notify(domain.ChangeNotification{UnitID: unitID, Table: domain.TableEvents, Op: "insert"})
	if !waitFor(time.Second, func() bool { orders, _ := q.Snapshot(); return len(orders) == 1 }) {
		t.Fatal("notification did not refresh the queue")
	}

	// Foreign unit: no refetch.
	calls := fetcher.callCount()
	feed.notify(domain.ChangeNotification{UnitID: uuid.New(), Table: domain.TableEvents, Op: "insert"})
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.callCount(); got != calls {
		t.Errorf("fetch count = %d after foreign-unit notification, want %d", got, calls)
	}
}

func TestSectorQueueStartFailsWithoutFeed(t *testing.T) {
	q := NewSectorQueue(uuid.New(), domain.StatusWashing, &fakeFetcher{}, &fakeFeed{fail: true}, nil)
	if err := q.Start(context.Background()); err == nil {
		t.Fatal("Start() = nil error with a failing subscription; the narrow variant has no polling to fall back on")
	}
}

func TestSectorQueueClose(t *testing.T) {
	unitID := uuid.New()
	feed := &fakeFeed{}
	q := NewSectorQueue(unitID, domain.StatusWashing, &fakeFetcher{}, feed, nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	q.Close()
	if _, cancels := feed.counts(); cancels != 1 {
		t.Errorf("cancels = %d after Close, want 1", cancels)
	}
	q.Close() // idempotent
}
