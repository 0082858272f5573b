package display

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/common/config"
	"laundry-system/internal/common/db"
	"laundry-system/internal/common/httpx"
	"laundry-system/internal/common/logger"
	"laundry-system/internal/common/mq"
	"laundry-system/internal/domain"
	"laundry-system/internal/liveview"
	"laundry-system/internal/store"
)

// Run starts the aggregate wall-panel feed for one unit: a sync coordinator
// plus a snapshot endpoint and an SSE stream.
func Run(ctx context.Context, port int, cfg config.App, unitID uuid.UUID) error {
	lg := logger.New("display-feed")

	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	rmq, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return err
	}
	defer rmq.Close()
	if err := rmq.DeclareAll(); err != nil {
		return err
	}

	st := store.NewPostgres(conn, nil, lg)
	coord := liveview.NewCoordinator(unitID, st, rmq, liveview.Options{
		PollInterval: cfg.Sync.PollInterval(),
		HardReload:   cfg.Sync.HardReloadHorizon(),
	}, lg)
	coord.Start(ctx)
	defer coord.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /board", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(coord.Snapshot())
	})
	mux.HandleFunc("GET /board/stream", func(w http.ResponseWriter, r *http.Request) {
		streamBoard(w, r, coord, lg)
	})

	lg.Info("listening", map[string]any{"port": port, "unit_id": unitID})
	return httpx.New(":"+strconv.Itoa(port), mux).Run(ctx)
}

// streamBoard pushes the full snapshot over SSE after every view replacement,
// with a keep-alive comment while nothing changes.
func streamBoard(w http.ResponseWriter, r *http.Request, coord *liveview.Coordinator, lg *logger.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "retry: 2000\n\n")

	updates, unsubscribe := coord.Updates()
	defer unsubscribe()
	lg.Debug("sse_connected", map[string]any{"remote": r.RemoteAddr})

	send := func() {
		b, err := json.Marshal(coord.Snapshot())
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		flusher.Flush()
	}
	send()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()
	for {
		select {
		case <-updates:
			send()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// RunSector starts the narrow single-sector queue feed.
func RunSector(ctx context.Context, port int, cfg config.App, unitID uuid.UUID, status domain.Status) error {
	lg := logger.New("sector-display")

	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	rmq, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return err
	}
	defer rmq.Close()
	if err := rmq.DeclareAll(); err != nil {
		return err
	}

	st := store.NewPostgres(conn, nil, lg)
	queue := liveview.NewSectorQueue(unitID, status, st, rmq, lg)
	if err := queue.Start(ctx); err != nil {
		return err
	}
	defer queue.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /queue", func(w http.ResponseWriter, r *http.Request) {
		orders, lastUpdated := queue.Snapshot()
		if orders == nil {
			orders = []domain.Order{}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"unit_id": unitID, "status": status, "orders": orders, "last_updated": lastUpdated,
		})
	})

	lg.Info("listening", map[string]any{"port": port, "unit_id": unitID, "status": status})
	return httpx.New(":"+strconv.Itoa(port), mux).Run(ctx)
}
