package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput rejects a malformed request before any mutation happens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownSector rejects a completion before any mutation happens.
	ErrUnknownSector = errors.New("unknown sector key")
	// ErrOrderNotFound means no order matched the id+unit scope.
	ErrOrderNotFound = errors.New("order not found in unit")
	// ErrStatusConflict means the order exists but is not in the status the
	// transition expects (another operator got there first, or the order is
	// terminal).
	ErrStatusConflict = errors.New("order status conflict")
)

// PartialFailureError reports the accepted-risk failure mode: the status
// update committed but the audit append did not. The order is left advanced;
// recovery is manual.
type PartialFailureError struct {
	OrderID uuid.UUID
	Stage   string // "event" | "detail" | "recipes"
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("order %s advanced but %s append failed: %v", e.OrderID, e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
