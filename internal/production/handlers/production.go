package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"laundry-system/internal/domain"
	"laundry-system/internal/production"
)

func (h *Handler) CompleteSector(w http.ResponseWriter, r *http.Request) {
	unitID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	key := domain.SectorKey(r.PathValue("sector"))

	var req domain.CompleteSectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}
	in := production.CompleteInput{
		OperatorID:   req.OperatorID,
		EquipmentID:  req.EquipmentID,
		Notes:        req.Notes,
		ProcessedQty: req.ProcessedQty,
		Detail:       detailFromRequest(key, req),
	}
	resp, err := h.svc.CompleteSector(r.Context(), key, orderID, unitID, in)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CompleteSorting(w http.ResponseWriter, r *http.Request) {
	unitID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req domain.CompleteSortingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}
	resp, err := h.svc.CompleteSorting(r.Context(), orderID, unitID, production.SortingInput{
		OperatorID:        req.OperatorID,
		Notes:             req.Notes,
		RecipeAssignments: req.RecipeAssignments,
	})
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AckAlert(w http.ResponseWriter, r *http.Request) {
	unitID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req domain.AckAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}
	if err := h.svc.AcknowledgeAlert(r.Context(), orderID, unitID, req.OperatorID, req.Notes); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

// scope pulls and validates the unit and order ids every mutation is scoped
// by.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (unitID, orderID uuid.UUID, ok bool) {
	unitID, err := uuid.Parse(r.PathValue("unit_id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "unit_id is not a uuid")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(r.PathValue("order_id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_input", "order_id is not a uuid")
		return uuid.Nil, uuid.Nil, false
	}
	return unitID, orderID, true
}

// detailFromRequest lifts the flat wire fields into the sector's detail
// variant. Unset fields stay zero; the service applies the defaults.
func detailFromRequest(key domain.SectorKey, req domain.CompleteSectorRequest) domain.SectorDetail {
	switch key {
	case domain.KeyWashing:
		return domain.WashingDetail{Cycles: req.Cycles}
	case domain.KeyDrying:
		return domain.DryingDetail{Temperature: req.Temperature}
	case domain.KeyIroning:
		return domain.IroningDetail{PressCount: req.PressCount}
	case domain.KeyShipping:
		return domain.ShippingDetail{PackagingType: req.PackagingType, PackageQty: req.PackageQty}
	default:
		return nil // unknown keys fail in the service before any mutation
	}
}

// writeMutationError maps the error taxonomy onto problem responses. Partial
// failures are surfaced, never hidden: the order advanced but audit is
// incomplete and an operator retry will hit the status conflict.
func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	var partial *domain.PartialFailureError
	switch {
	case errors.Is(err, domain.ErrUnknownSector), errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrStatusConflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &partial):
		writeProblem(w, http.StatusInternalServerError, "partial_failure", err.Error())
	default:
		h.lg.Error("mutation_failed", err, nil)
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
	}
}
