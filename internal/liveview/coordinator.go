package liveview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/common/logger"
	"laundry-system/internal/domain"
)

// Fetcher is the slice of the store a live view needs.
type Fetcher interface {
	QueryOrders(ctx context.Context, unitID uuid.UUID, statuses ...domain.Status) ([]domain.Order, error)
}

// Feed delivers change notifications for one unit. A nil error from Subscribe
// means the broker acknowledged the subscription; cancel must be safe to call
// exactly once.
type Feed interface {
	Subscribe(ctx context.Context, unitID uuid.UUID) (<-chan domain.ChangeNotification, func(), error)
}

// View is the display contract: orders grouped by status (created_at
// ascending within a group, shop-floor FIFO), when the view was last
// replaced, and whether the push channel is live. Connected only labels the
// UI ("live" vs "polling"); it never gates correctness.
type View struct {
	Groups      map[domain.Status][]domain.Order `json:"groups"`
	LastUpdated time.Time                        `json:"last_updated"`
	Connected   bool                             `json:"connected"`
}

// Options tune a Coordinator. Zero values fall back to the defaults the wall
// panels ship with.
type Options struct {
	PollInterval time.Duration   // fixed-interval fallback, default 30s
	HardReload   time.Duration   // defensive full reload horizon, default 6h
	Statuses     []domain.Status // tracked statuses, default BoardStatuses
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.HardReload <= 0 {
		o.HardReload = 6 * time.Hour
	}
	if len(o.Statuses) == 0 {
		o.Statuses = domain.BoardStatuses
	}
	return o
}

// Coordinator keeps a per-unit grouped view of in-process orders fresh for a
// live display. Every in-scope notification triggers a full refetch-and-
// replace; no incremental patching. Polling runs regardless of the push
// channel, so staleness stays bounded even when the subscription handshake
// never completes. All timers and the subscription are owned by this object
// and released together by Close.
type Coordinator struct {
	unitID  uuid.UUID
	fetcher Fetcher
	feed    Feed
	opts    Options
	lg      *logger.Logger
	now     func() time.Time

	mu   sync.RWMutex
	view View

	subsMu sync.Mutex
	subs   map[int]chan struct{}
	nextID int

	initialTimer *time.Timer
	pollTicker   *time.Ticker
	reloadTimer  *time.Timer

	resMu       sync.Mutex // guards unsubscribe across loop and Close
	unsubscribe func()

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewCoordinator(unitID uuid.UUID, fetcher Fetcher, feed Feed, opts Options, lg *logger.Logger) *Coordinator {
	if lg == nil {
		lg = logger.New("liveview")
	}
	return &Coordinator{
		unitID:  unitID,
		fetcher: fetcher,
		feed:    feed,
		opts:    opts.withDefaults(),
		lg:      lg,
		now:     func() time.Time { return time.Now().UTC() },
		view:    View{Groups: map[domain.Status][]domain.Order{}},
		subs:    map[int]chan struct{}{},
		done:    make(chan struct{}),
	}
}

// Start begins synchronizing. The initial fetch is deferred to the event loop
// (never run synchronously inside Start), the change feed subscription is
// requested, and the poll ticker starts immediately whether or not the
// subscription comes up.
func (c *Coordinator) Start(ctx context.Context) {
	notifs, cancel, err := c.feed.Subscribe(ctx, c.unitID)
	if err != nil {
		// Degraded from the start: the poll below still bounds staleness.
		c.lg.Warn("feed_subscribe_failed", err, map[string]any{"unit_id": c.unitID})
		notifs, cancel = nil, func() {}
	}
	c.setUnsubscribe(cancel)
	c.setConnected(err == nil)

	c.initialTimer = time.NewTimer(0)
	c.pollTicker = time.NewTicker(c.opts.PollInterval)
	c.reloadTimer = time.NewTimer(c.opts.HardReload)

	c.wg.Add(1)
	go c.loop(ctx, notifs)
}

func (c *Coordinator) loop(ctx context.Context, notifs <-chan domain.ChangeNotification) {
	defer c.wg.Done()
	for {
		select {
		case <-c.initialTimer.C:
			c.refetch(ctx)
		case n, ok := <-notifs:
			if !ok {
				// Push channel dropped; polling carries on.
				c.setConnected(false)
				notifs = nil
				continue
			}
			if n.UnitID != c.unitID {
				continue
			}
			c.refetch(ctx)
		case <-c.pollTicker.C:
			c.refetch(ctx)
		case <-c.reloadTimer.C:
			notifs = c.hardReload(ctx)
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refetch replaces the whole view. A failed fetch keeps the previous snapshot
// stale until the next tick: availability of a possibly-stale display beats
// erroring out a wall panel.
func (c *Coordinator) refetch(ctx context.Context) {
	orders, err := c.fetcher.QueryOrders(ctx, c.unitID, c.opts.Statuses...)
	if err != nil {
		c.lg.Warn("refetch_failed", err, map[string]any{"unit_id": c.unitID})
		return
	}
	groups := make(map[domain.Status][]domain.Order, len(c.opts.Statuses))
	for _, o := range orders {
		groups[o.Status] = append(groups[o.Status], o) // store returns created_at asc
	}
	c.mu.Lock()
	c.view.Groups = groups
	c.view.LastUpdated = c.now()
	c.mu.Unlock()
	c.broadcast()
}

// hardReload tears the subscription down, resubscribes and refetches. Long-
// running unattended displays get a clean connection every horizon.
func (c *Coordinator) hardReload(ctx context.Context) <-chan domain.ChangeNotification {
	c.setUnsubscribe(nil)
	notifs, cancel, err := c.feed.Subscribe(ctx, c.unitID)
	if err != nil {
		c.lg.Warn("feed_resubscribe_failed", err, map[string]any{"unit_id": c.unitID})
		notifs, cancel = nil, func() {}
	}
	c.setUnsubscribe(cancel)
	c.setConnected(err == nil)
	c.refetch(ctx)
	c.reloadTimer.Reset(c.opts.HardReload)
	return notifs
}

// Snapshot returns the current view. The groups map is replaced wholesale on
// every refetch and never mutated in place, so the returned value is safe to
// read without further locking.
func (c *Coordinator) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Updates registers a consumer signalled after every view replacement.
// The channel is signal-only (coalescing); read Snapshot for the data.
func (c *Coordinator) Updates() (<-chan struct{}, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch
	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) broadcast() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Coordinator) setConnected(v bool) {
	c.mu.Lock()
	c.view.Connected = v
	c.mu.Unlock()
}

// Close releases the initial-fetch timer, the poll ticker, the hard-reload
// timer and the feed subscription together, then waits for the loop to exit.
// Safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.initialTimer != nil {
			c.initialTimer.Stop()
		}
		if c.pollTicker != nil {
			c.pollTicker.Stop()
		}
		if c.reloadTimer != nil {
			c.reloadTimer.Stop()
		}
		c.setUnsubscribe(nil)
		c.wg.Wait()
	})
}

// setUnsubscribe swaps the active feed cancel, releasing the previous one.
func (c *Coordinator) setUnsubscribe(next func()) {
	c.resMu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = next
	c.resMu.Unlock()
	if prev != nil {
		prev()
	}
}
