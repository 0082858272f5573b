package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"laundry-system/internal/app/display"
	"laundry-system/internal/app/production"
	"laundry-system/internal/common/config"
	"laundry-system/internal/common/db"
	"laundry-system/internal/common/logger"
	"laundry-system/internal/common/mq"
	"laundry-system/internal/domain"
)

func main() {
	mode := flag.String("mode", "", "production-service | display-feed | sector-display | check")
	port := flag.Int("port", 0, "http port for services that expose HTTP")
	cfgPath := flag.String("config", "", "path to YAML config (default: search candidates)")
	unit := flag.String("unit", "", "display-feed/sector-display: unit id to track")
	sector := flag.String("sector", "", "sector-display: status to track (e.g. washing)")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		var err error
		if path, err = config.FindConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "no config found: pass --config")
			os.Exit(2)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}

	switch *mode {
	case "production-service":
		if *port == 0 {
			*port = 3000
		}
		lg.Info("service_started", map[string]any{"service": "production-service", "port": *port})
		if err := production.Run(ctx, *port, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "display-feed":
		if *port == 0 {
			*port = 3001
		}
		unitID := mustUnit(*unit)
		lg.Info("service_started", map[string]any{"service": "display-feed", "port": *port, "unit_id": unitID})
		if err := display.Run(ctx, *port, cfg, unitID); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "sector-display":
		if *port == 0 {
			*port = 3002
		}
		unitID := mustUnit(*unit)
		status := domain.Status(*sector)
		if !status.Valid() {
			fmt.Fprintln(os.Stderr, "--sector must be a valid status (e.g. washing)")
			os.Exit(2)
		}
		lg.Info("service_started", map[string]any{"service": "sector-display", "port": *port, "unit_id": unitID, "status": status})
		if err := display.RunSector(ctx, *port, cfg, unitID, status); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "check":
		if err := check(ctx, cfg); err != nil {
			lg.Error("check_failed", err, nil)
			os.Exit(1)
		}
		lg.Info("check_ok", nil)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: production-service | display-feed | sector-display | check")
		os.Exit(2)
	}
}

func mustUnit(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--unit must be a uuid")
		os.Exit(2)
	}
	return id
}

// check verifies Postgres and RabbitMQ connectivity and exits.
func check(ctx context.Context, cfg config.App) error {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	rmq, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer rmq.Close()
	return rmq.DeclareAll()
}
