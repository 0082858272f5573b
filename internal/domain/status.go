package domain

// Status is the current processing stage of an order. The sequence is fixed:
// received -> sorting -> washing -> drying -> ironing -> ready -> shipped -> delivered.
type Status string

const (
	StatusReceived  Status = "received"
	StatusSorting   Status = "sorting"
	StatusWashing   Status = "washing"
	StatusDrying    Status = "drying"
	StatusIroning   Status = "ironing"
	StatusReady     Status = "ready"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

// AllStatuses in pipeline order.
var AllStatuses = []Status{
	StatusReceived, StatusSorting, StatusWashing, StatusDrying,
	StatusIroning, StatusReady, StatusShipped, StatusDelivered,
}

// BoardStatuses are the stages a unit display tracks: everything that is
// physically on the floor, received through ready.
var BoardStatuses = []Status{
	StatusReceived, StatusSorting, StatusWashing, StatusDrying,
	StatusIroning, StatusReady,
}

// SLAStatuses are the stages that carry a dwell-time threshold. Boundary and
// terminal stages (received, ready, delivered) are exempt.
var SLAStatuses = []Status{
	StatusSorting, StatusWashing, StatusDrying, StatusIroning, StatusShipped,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the tracking core never advances this status.
func (s Status) Terminal() bool { return s == StatusDelivered }

// SLABound reports whether the status carries an SLA threshold.
func (s Status) SLABound() bool {
	for _, v := range SLAStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Sector is a physical processing stage. It names where an event happened,
// which is not always the same word as the order status it leaves behind
// (completing the shipping sector puts the order in status "shipped").
type Sector string

const (
	SectorSorting  Sector = "sorting"
	SectorWashing  Sector = "washing"
	SectorDrying   Sector = "drying"
	SectorIroning  Sector = "ironing"
	SectorShipping Sector = "shipping"
)

// SectorKey names a sector-completion entry point. Sorting has a dedicated
// entry point (sorting-handoff) because it additionally assigns item recipes.
type SectorKey string

const (
	KeySortingHandoff SectorKey = "sorting-handoff"
	KeyWashing        SectorKey = "washing"
	KeyDrying         SectorKey = "drying"
	KeyIroning        SectorKey = "ironing"
	KeyShipping       SectorKey = "shipping"
)

// transitions is the fixed sector-completion table: completing a sector moves
// the order from the source status to the target status. Sorting handoff is
// handled separately (always lands on washing).
var transitions = map[SectorKey]struct {
	Sector   Sector
	From, To Status
}{
	KeyWashing:  {SectorWashing, StatusWashing, StatusDrying},
	KeyDrying:   {SectorDrying, StatusDrying, StatusIroning},
	KeyIroning:  {SectorIroning, StatusIroning, StatusReady},
	KeyShipping: {SectorShipping, StatusReady, StatusShipped},
}

// Transition resolves a sector key to the sector it names and the source and
// target statuses. ok is false for unknown keys and for sorting-handoff,
// which does not use the table.
func Transition(key SectorKey) (sector Sector, from, to Status, ok bool) {
	t, ok := transitions[key]
	return t.Sector, t.From, t.To, ok
}

// SectorForStatus maps an order status back to the physical sector working
// it. Boundary statuses (received, ready, delivered) have no sector.
func SectorForStatus(s Status) (Sector, bool) {
	switch s {
	case StatusSorting:
		return SectorSorting, true
	case StatusWashing:
		return SectorWashing, true
	case StatusDrying:
		return SectorDrying, true
	case StatusIroning:
		return SectorIroning, true
	case StatusShipped:
		return SectorShipping, true
	default:
		return "", false
	}
}
