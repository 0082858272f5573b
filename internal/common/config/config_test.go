package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.local
  user: laundry
  password: secret
  database: laundry
rabbitmq:
  host: mq.local
  user: guest
  password: guest
sla:
  thresholds:
    washing: 200
sync:
  poll_interval_sec: 10
  hard_reload_hours: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Host != "db.local" || cfg.Database.Port != 5432 {
		t.Errorf("database = %+v, want host set and default port", cfg.Database)
	}
	if cfg.Rabbit.VHost != "/" {
		t.Errorf("vhost = %q, want default /", cfg.Rabbit.VHost)
	}
	if cfg.SLA.Thresholds["washing"] != 200 {
		t.Errorf("washing threshold = %d, want 200", cfg.SLA.Thresholds["washing"])
	}
	if cfg.Sync.PollInterval() != 10*time.Second || cfg.Sync.HardReloadHorizon() != 2*time.Hour {
		t.Errorf("sync = %+v, want 10s poll and 2h reload", cfg.Sync)
	}
}

func TestLoadRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missingDatabase", "rabbitmq:\n  host: mq\n  user: guest\n"},
		{"missingRabbit", "database:\n  host: db\n  user: u\n  database: d\n"},
		{"zeroThreshold", `
database:
  host: db
  user: u
  database: d
rabbitmq:
  host: mq
  user: guest
sla:
  thresholds:
    washing: 0
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() accepted an invalid config")
			}
		})
	}
}
