package kpi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
	"laundry-system/internal/store"
)

// Throughput is the trailing-window processing volume: exit events that
// reported a processed quantity, and the pieces they covered.
type Throughput struct {
	Window time.Duration `json:"-"`
	Events int           `json:"events"`
	Pieces int           `json:"pieces"`
}

// DailyRollup summarizes one day's finished orders against their promises.
// Lateness uses the same promised-vs-actual comparison as the SLA engine.
type DailyRollup struct {
	Day       string  `json:"day"`
	Volume    int     `json:"volume"`
	Late      int     `json:"late"`
	OnTimePct float64 `json:"on_time_pct"`
}

// Service exposes the read-only aggregates the KPI collaborators consume.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service { return &Service{store: st} }

// StatusCounts reports how many orders sit in each status right now.
func (s *Service) StatusCounts(ctx context.Context, unitID uuid.UUID) (map[domain.Status]int, error) {
	return s.store.CountByStatus(ctx, unitID)
}

func (s *Service) Throughput(ctx context.Context, unitID uuid.UUID, window time.Duration) (Throughput, error) {
	events, pieces, err := s.store.ProcessedSince(ctx, unitID, time.Now().UTC().Add(-window))
	if err != nil {
		return Throughput{}, err
	}
	return Throughput{Window: window, Events: events, Pieces: pieces}, nil
}

func (s *Service) DailyRollup(ctx context.Context, unitID uuid.UUID, day time.Time) (DailyRollup, error) {
	completions, err := s.store.DailyCompletions(ctx, unitID, day)
	if err != nil {
		return DailyRollup{}, err
	}
	r := Rollup(completions)
	r.Day = day.Format("2006-01-02")
	return r, nil
}

// Rollup folds completion records into the daily volume/lateness summary.
// An order is late when processing finished after its promised timestamp.
func Rollup(completions []store.Completion) DailyRollup {
	r := DailyRollup{Volume: len(completions), OnTimePct: 100}
	for _, c := range completions {
		if c.CompletedAt.After(c.PromisedAt) {
			r.Late++
		}
	}
	if r.Volume > 0 {
		r.OnTimePct = float64(r.Volume-r.Late) / float64(r.Volume) * 100
	}
	return r
}
