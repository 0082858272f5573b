package production

import (
	"context"
	"strconv"

	"laundry-system/internal/common/config"
	"laundry-system/internal/common/db"
	"laundry-system/internal/common/httpx"
	"laundry-system/internal/common/logger"
	"laundry-system/internal/common/mq"
	"laundry-system/internal/kpi"
	svc "laundry-system/internal/production"
	"laundry-system/internal/production/handlers"
	"laundry-system/internal/sla"
	"laundry-system/internal/store"
)

// Run starts the operator-facing production API: sector completions, SLA
// alerts and KPI reads.
func Run(ctx context.Context, port int, cfg config.App) error {
	lg := logger.New("production-service")

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

	thresholds, err := sla.DefaultThresholds().Merge(cfg.SLA.Thresholds)
	if err != nil {
		return err
	}

	st := store.NewPostgres(conn, rmq, lg)
	h := handlers.New(
		svc.New(st, lg),
		sla.NewEngine(st, thresholds),
		kpi.New(st),
		lg,
	)

	lg.Info("listening", map[string]any{"port": port})
	return httpx.New(":"+strconv.Itoa(port), h.Router()).Run(ctx)
}
