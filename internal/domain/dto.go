package domain

import "github.com/google/uuid"

// CompleteSectorRequest is the operator-facing body for a sector completion.
// The sector-specific fields are a flat bag on the wire; the handler lifts
// them into the right SectorDetail variant.
type CompleteSectorRequest struct {
	OperatorID   uuid.UUID  `json:"operator_id"`
	EquipmentID  *uuid.UUID `json:"equipment_id,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ProcessedQty *int       `json:"processed_qty,omitempty"`

	Cycles        int    `json:"cycles,omitempty"`         // washing
	Temperature   string `json:"temperature,omitempty"`    // drying
	PressCount    int    `json:"press_count,omitempty"`    // ironing
	PackagingType string `json:"packaging_type,omitempty"` // shipping
	PackageQty    int    `json:"package_qty,omitempty"`    // shipping
}

// CompleteSortingRequest finishes the sorting stage, optionally binding a
// processing recipe to each item.
type CompleteSortingRequest struct {
	OperatorID        uuid.UUID               `json:"operator_id"`
	Notes             string                  `json:"notes,omitempty"`
	RecipeAssignments map[uuid.UUID]uuid.UUID `json:"recipe_assignments,omitempty"`
}

// CompleteSectorResponse reports the transition that was applied.
type CompleteSectorResponse struct {
	Sector    Sector `json:"sector"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// AckAlertRequest records an operator acknowledging an SLA alert. The alert
// keeps recurring until the order progresses; the ack is audit only.
type AckAlertRequest struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Notes      string    `json:"notes,omitempty"`
}
