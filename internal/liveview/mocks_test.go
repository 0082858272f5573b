package liveview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
)

type fakeFetcher struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
	calls  int
}

func (f *fakeFetcher) QueryOrders(_ context.Context, unitID uuid.UUID, _ ...domain.Status) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Order
	for _, o := range f.orders {
		if o.UnitID == unitID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeFetcher) set(orders []domain.Order, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders, f.err = orders, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFeed struct {
	mu         sync.Mutex
	ch         chan domain.ChangeNotification
	subscribes int
	cancels    int
	fail       bool
}

func (f *fakeFeed) Subscribe(context.Context, uuid.UUID) (<-chan domain.ChangeNotification, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, nil, errSubscribe
	}
	f.subscribes++
	ch := make(chan domain.ChangeNotification, 8)
	f.ch = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			f.cancels++
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeFeed) notify(n domain.ChangeNotification) {
	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()
	ch <- n
}

func (f *fakeFeed) counts() (subscribes, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes, f.cancels
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
