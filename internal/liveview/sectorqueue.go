package liveview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/common/logger"
	"laundry-system/internal/domain"
)

// SectorQueue is the narrow single-sector variant of the Coordinator: same
// refetch-on-notification pattern, without the polling and hard-reload safety
// nets. Used where an operator is actively watching one queue and a single
// missed update is cheap.
type SectorQueue struct {
	unitID  uuid.UUID
	status  domain.Status
	fetcher Fetcher
	feed    Feed
	lg      *logger.Logger
	now     func() time.Time

	mu          sync.RWMutex
	orders      []domain.Order
	lastUpdated time.Time

	unsubscribe func()
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func NewSectorQueue(unitID uuid.UUID, status domain.Status, fetcher Fetcher, feed Feed, lg *logger.Logger) *SectorQueue {
	if lg == nil {
		lg = logger.New("sector-queue")
	}
	return &SectorQueue{
		unitID:  unitID,
		status:  status,
		fetcher: fetcher,
		feed:    feed,
		lg:      lg,
		now:     func() time.Time { return time.Now().UTC() },
		done:    make(chan struct{}),
	}
}

// Start fills the queue once and then refetches on every in-scope
// notification until Close.
func (q *SectorQueue) Start(ctx context.Context) error {
	notifs, cancel, err := q.feed.Subscribe(ctx, q.unitID)
	if err != nil {
		return err
	}
	q.unsubscribe = cancel
	q.refetch(ctx)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case n, ok := <-notifs:
				if !ok {
					return
				}
				if n.UnitID != q.unitID {
					continue
				}
				q.refetch(ctx)
			case <-q.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (q *SectorQueue) refetch(ctx context.Context) {
	orders, err := q.fetcher.QueryOrders(ctx, q.unitID, q.status)
	if err != nil {
		q.lg.Warn("refetch_failed", err, map[string]any{"unit_id": q.unitID, "status": q.status})
		return
	}
	q.mu.Lock()
	q.orders = orders
	q.lastUpdated = q.now()
	q.mu.Unlock()
}

// Snapshot returns the queue oldest-first and when it was last replaced.
func (q *SectorQueue) Snapshot() ([]domain.Order, time.Time) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.orders, q.lastUpdated
}

func (q *SectorQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		if q.unsubscribe != nil {
			q.unsubscribe()
		}
		q.wg.Wait()
	})
}
