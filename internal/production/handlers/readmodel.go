package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"laundry-system/internal/sla"
)

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	unitID, ok := h.unit(w, r)
	if !ok {
		return
	}
	alerts, err := h.alerts.Alerts(r.Context(), unitID)
	if err != nil {
		// A broken query must not read as "no alerts" on the triage screen.
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if alerts == nil {
		alerts = []sla.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit_id": unitID, "alerts": alerts})
}

func (h *Handler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	unitID, ok := h.unit(w, r)
	if !ok {
		return
	}
	counts, err := h.kpi.StatusCounts(r.Context(), unitID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit_id": unitID, "counts": counts})
}

func (h *Handler) Throughput(w http.ResponseWriter, r *http.Request) {
	unitID, ok := h.unit(w, r)
	if !ok {
		return
	}
	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeProblem(w, http.StatusBadRequest, "invalid_input", "window must be a positive duration")
			return
		}
		window = d
	}
	tp, err := h.kpi.Throughput(r.Context(), unitID, window)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unit_id": unitID, "window": window.String(), "events": tp.Events, "pieces": tp.Pieces,
	})
}

func (h *Handler) DailyRollup(w http.ResponseWriter, r *http.Request) {
	unitID, ok := h.unit(w, r)
	if !ok {
		return
	}
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	rollup, err := h.kpi.DailyRollup(r.Context(), unitID, day)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

func (h *Handler) unit(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	unitID, err := uuid.Parse(r.PathValue("unit_id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "unit_id is not a uuid")
		return uuid.Nil, false
	}
	return unitID, true
}
