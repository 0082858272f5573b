package handlers

import (
	"encoding/json"
	"net/http"

	"laundry-system/internal/common/logger"
	"laundry-system/internal/kpi"
	"laundry-system/internal/production"
	"laundry-system/internal/sla"
)

type Handler struct {
	svc    *production.Service
	alerts *sla.Engine
	kpi    *kpi.Service
	lg     *logger.Logger
}

func New(svc *production.Service, alerts *sla.Engine, kpiSvc *kpi.Service, lg *logger.Logger) *Handler {
	if lg == nil {
		lg = logger.New("production-api")
	}
	return &Handler{svc: svc, alerts: alerts, kpi: kpiSvc, lg: lg}
}

// Router wires the operator-facing API (needs Go 1.22 ServeMux patterns).
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /units/{unit_id}/orders/{order_id}/complete/{sector}", h.CompleteSector)
	mux.HandleFunc("POST /units/{unit_id}/orders/{order_id}/sorting/complete", h.CompleteSorting)
	mux.HandleFunc("POST /units/{unit_id}/orders/{order_id}/alerts/ack", h.AckAlert)
	mux.HandleFunc("GET /units/{unit_id}/alerts", h.Alerts)
	mux.HandleFunc("GET /units/{unit_id}/kpi/status-counts", h.StatusCounts)
	mux.HandleFunc("GET /units/{unit_id}/kpi/throughput", h.Throughput)
	mux.HandleFunc("GET /units/{unit_id}/kpi/daily", h.DailyRollup)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem emits the simplified RFC7807 problem shape used everywhere.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
