package domain

import "github.com/google/uuid"

// SectorDetail is the structured per-sector record appended alongside an exit
// event. One concrete type per sector; the detail is owned by its event and
// never drives the state machine.
type SectorDetail interface {
	Kind() Sector
	// WithDefaults returns a copy with unset optional fields filled in.
	WithDefaults() SectorDetail
}

// SortingDetail records the recipe assigned to each item during sorting.
type SortingDetail struct {
	RecipeAssignments map[uuid.UUID]uuid.UUID `json:"recipe_assignments"` // item id -> recipe id
}

func (SortingDetail) Kind() Sector { return SectorSorting }

func (d SortingDetail) WithDefaults() SectorDetail { return d }

// WashingDetail records how many wash cycles the order went through.
type WashingDetail struct {
	Cycles int `json:"cycles"`
}

func (WashingDetail) Kind() Sector { return SectorWashing }

func (d WashingDetail) WithDefaults() SectorDetail {
	if d.Cycles <= 0 {
		d.Cycles = 1
	}
	return d
}

// DryingDetail records the drying temperature level.
type DryingDetail struct {
	Temperature string `json:"temperature"` // low | medium | high
}

func (DryingDetail) Kind() Sector { return SectorDrying }

func (d DryingDetail) WithDefaults() SectorDetail {
	if d.Temperature == "" {
		d.Temperature = "medium"
	}
	return d
}

// IroningDetail records how many passes the press made.
type IroningDetail struct {
	PressCount int `json:"press_count"`
}

func (IroningDetail) Kind() Sector { return SectorIroning }

func (d IroningDetail) WithDefaults() SectorDetail {
	if d.PressCount <= 0 {
		d.PressCount = 1
	}
	return d
}

// ShippingDetail records how the order was packaged for handoff.
type ShippingDetail struct {
	PackagingType string `json:"packaging_type"` // bag | box | hanger
	PackageQty    int    `json:"package_qty"`
}

func (ShippingDetail) Kind() Sector { return SectorShipping }

func (d ShippingDetail) WithDefaults() SectorDetail {
	if d.PackagingType == "" {
		d.PackagingType = "bag"
	}
	if d.PackageQty <= 0 {
		d.PackageQty = 1
	}
	return d
}
