package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	Name     string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type MQ struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	User  string `yaml:"user"`
	Pass  string `yaml:"password"`
	VHost string `yaml:"vhost"`
}

// SLA holds per-status threshold overrides in minutes. Statuses not listed
// keep the built-in defaults.
type SLA struct {
	Thresholds map[string]int `yaml:"thresholds"`
}

// Sync tunes the display feed: poll fallback cadence and the defensive
// hard-reload horizon for unattended panels.
type Sync struct {
	PollIntervalSec int `yaml:"poll_interval_sec"`
	HardReloadHours int `yaml:"hard_reload_hours"`
}

type App struct {
	Database DB   `yaml:"database"`
	Rabbit   MQ   `yaml:"rabbitmq"`
	SLA      SLA  `yaml:"sla"`
	Sync     Sync `yaml:"sync"`
}

func (s Sync) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSec) * time.Second
}

func (s Sync) HardReloadHorizon() time.Duration {
	return time.Duration(s.HardReloadHours) * time.Hour
}

func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, err
	}
	a := App{
		Database: DB{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Rabbit:   MQ{Port: 5672, VHost: "/"},
		Sync:     Sync{PollIntervalSec: 30, HardReloadHours: 6},
	}
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
		return App{}, errors.New("invalid config: database section incomplete")
	}
	if a.Rabbit.Host == "" || a.Rabbit.User == "" {
		return App{}, errors.New("invalid config: rabbitmq section incomplete")
	}
	for status, minutes := range a.SLA.Thresholds {
		if minutes <= 0 {
			return App{}, fmt.Errorf("invalid config: sla threshold for %q must be positive", status)
		}
	}
	return a, nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
