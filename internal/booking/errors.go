package booking

import (
	"fmt"
	"strings"
)

// The engine reports failures through four typed errors mirroring the
// outcomes a caller can act on: fix the input (InvalidRequestError),
// change the passenger/seat assignment (EligibilityError), pick other
// seats (ConflictError) or retry later (PersistenceError).  The first
// three are guaranteed to leave inventory untouched; PersistenceError
// is surfaced only after the claim has been rolled back.

// InvalidRequestError reports malformed or incomplete input.  Fields
// lists the offending field names in request order.
type InvalidRequestError struct {
	Fields []string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// EligibilityError reports restricted seats whose assigned passenger
// does not satisfy the category predicate.
type EligibilityError struct {
	SeatNumbers []uint32
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("passenger not eligible for restricted seats %v", e.SeatNumbers)
}

// ConflictError reports seats that were no longer available at claim
// time.  The caller should re-fetch inventory and re-select; the engine
// performs no automatic retry.
type ConflictError struct {
	SeatNumbers []uint32
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats %v are no longer available", e.SeatNumbers)
}

// PersistenceError wraps a storage failure.  When it is returned the
// transaction has been rolled back, so no seat remains claimed and no
// booking row exists; the request may be retried as-is.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "booking not persisted: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
