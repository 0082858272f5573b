package production

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"laundry-system/internal/common/logger"
	"laundry-system/internal/domain"
	"laundry-system/internal/store"
)

// CompleteInput carries the operator-supplied parts of a sector completion.
// Detail may be nil; each sector has a zero value with sensible defaults.
type CompleteInput struct {
	OperatorID   uuid.UUID
	EquipmentID  *uuid.UUID
	Notes        string
	ProcessedQty *int
	Detail       domain.SectorDetail
}

// SortingInput carries the sorting-handoff parameters. Recipe assignment is
// only possible here; every other sector's items are frozen.
type SortingInput struct {
	OperatorID        uuid.UUID
	Notes             string
	RecipeAssignments map[uuid.UUID]uuid.UUID
}

// Service executes validated sector-completion transitions. One transition
// per call; atomicity per order rests on the store's compare-and-swap status
// update, appends are audit that may lag behind (see PartialFailureError).
type Service struct {
	store store.Store
	lg    *logger.Logger
}

func New(st store.Store, lg *logger.Logger) *Service {
	if lg == nil {
		lg = logger.New("production")
	}
	return &Service{store: st, lg: lg}
}

// CompleteSector advances an order per the fixed transition table:
// washing->drying, drying->ironing, ironing->ready, shipping->shipped.
// The sorting-handoff key is routed to CompleteSorting.
func (s *Service) CompleteSector(ctx context.Context, key domain.SectorKey, orderID, unitID uuid.UUID, in CompleteInput) (domain.CompleteSectorResponse, error) {
	if key == domain.KeySortingHandoff {
		var assignments map[uuid.UUID]uuid.UUID
		if d, ok := in.Detail.(domain.SortingDetail); ok {
			assignments = d.RecipeAssignments
		}
		return s.CompleteSorting(ctx, orderID, unitID, SortingInput{
			OperatorID:        in.OperatorID,
			Notes:             in.Notes,
			RecipeAssignments: assignments,
		})
	}

	sector, from, to, ok := domain.Transition(key)
	if !ok {
		return domain.CompleteSectorResponse{}, fmt.Errorf("%w: %q", domain.ErrUnknownSector, key)
	}
	detail := in.Detail
	if detail == nil {
		detail = emptyDetail(sector)
	}
	if detail.Kind() != sector {
		return domain.CompleteSectorResponse{}, fmt.Errorf("%w: %s detail for %s completion",
			domain.ErrInvalidInput, detail.Kind(), sector)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, unitID, from, to); err != nil {
		return domain.CompleteSectorResponse{}, err
	}
	if err := s.appendAudit(ctx, sector, orderID, unitID, in, detail); err != nil {
		return domain.CompleteSectorResponse{}, err
	}

	s.lg.Debug("sector_completed", map[string]any{
		"order_id": orderID, "unit_id": unitID, "sector": sector, "status": to,
	})
	return domain.CompleteSectorResponse{Sector: sector, OldStatus: from, NewStatus: to}, nil
}

// CompleteSorting always lands the order on washing, whether it was still in
// received or already marked sorting, and binds recipes to items on the way.
func (s *Service) CompleteSorting(ctx context.Context, orderID, unitID uuid.UUID, in SortingInput) (domain.CompleteSectorResponse, error) {
	from := domain.StatusSorting
	err := s.store.UpdateOrderStatus(ctx, orderID, unitID, from, domain.StatusWashing)
	if errors.Is(err, domain.ErrStatusConflict) {
		from = domain.StatusReceived
		err = s.store.UpdateOrderStatus(ctx, orderID, unitID, from, domain.StatusWashing)
	}
	if err != nil {
		return domain.CompleteSectorResponse{}, err
	}

	if len(in.RecipeAssignments) > 0 {
		if err := s.store.AssignItemRecipes(ctx, orderID, in.RecipeAssignments); err != nil {
			return domain.CompleteSectorResponse{}, &domain.PartialFailureError{OrderID: orderID, Stage: "recipes", Err: err}
		}
	}
	ci := CompleteInput{OperatorID: in.OperatorID, Notes: in.Notes}
	detail := domain.SortingDetail{RecipeAssignments: in.RecipeAssignments}
	if err := s.appendAudit(ctx, domain.SectorSorting, orderID, unitID, ci, detail); err != nil {
		return domain.CompleteSectorResponse{}, err
	}

	s.lg.Debug("sorting_completed", map[string]any{
		"order_id": orderID, "unit_id": unitID, "recipes": len(in.RecipeAssignments),
	})
	return domain.CompleteSectorResponse{
		Sector: domain.SectorSorting, OldStatus: from, NewStatus: domain.StatusWashing,
	}, nil
}

// AcknowledgeAlert records that an operator has seen an SLA breach. It is
// audit only: the alert keeps recurring until the order actually progresses.
func (s *Service) AcknowledgeAlert(ctx context.Context, orderID, unitID, operatorID uuid.UUID, notes string) error {
	o, err := s.store.GetOrder(ctx, orderID, unitID)
	if err != nil {
		return err
	}
	sector, ok := domain.SectorForStatus(o.Status)
	if !ok {
		return fmt.Errorf("%w: status %s carries no alerts", domain.ErrInvalidInput, o.Status)
	}
	op := operatorID
	_, err = s.store.AppendEvent(ctx, domain.OrderEvent{
		OrderID:    orderID,
		UnitID:     unitID,
		Sector:     sector,
		EventType:  domain.EventAlert,
		OperatorID: &op,
		Notes:      notes,
	})
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	return nil
}

// appendAudit writes the exit event and its sector detail. The status update
// has already committed at this point; failures here are partial failures the
// design accepts instead of a multi-step rollback (the store exposes no
// cross-statement transaction to this layer).
func (s *Service) appendAudit(ctx context.Context, sector domain.Sector, orderID, unitID uuid.UUID, in CompleteInput, detail domain.SectorDetail) error {
	ev := domain.OrderEvent{
		OrderID:      orderID,
		UnitID:       unitID,
		Sector:       sector,
		EventType:    domain.EventExit,
		EquipmentID:  in.EquipmentID,
		Notes:        in.Notes,
		ProcessedQty: in.ProcessedQty,
	}
	if in.OperatorID != uuid.Nil {
		op := in.OperatorID
		ev.OperatorID = &op
	}
	eventID, err := s.store.AppendEvent(ctx, ev)
	if err != nil {
		s.lg.Error("event_append_failed", err, map[string]any{"order_id": orderID, "sector": sector})
		return &domain.PartialFailureError{OrderID: orderID, Stage: "event", Err: err}
	}
	if err := s.store.AppendSectorDetail(ctx, eventID, detail.WithDefaults()); err != nil {
		s.lg.Error("detail_append_failed", err, map[string]any{"order_id": orderID, "sector": sector})
		return &domain.PartialFailureError{OrderID: orderID, Stage: "detail", Err: err}
	}
	return nil
}

func emptyDetail(sector domain.Sector) domain.SectorDetail {
	switch sector {
	case domain.SectorSorting:
		return domain.SortingDetail{}
	case domain.SectorWashing:
		return domain.WashingDetail{}
	case domain.SectorDrying:
		return domain.DryingDetail{}
	case domain.SectorIroning:
		return domain.IroningDetail{}
	default:
		return domain.ShippingDetail{}
	}
}
