// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking engine and handlers to distinguish between different failure
// scenarios without string matching.
package repository

import "errors"

// ErrTripNotFound indicates that a trip lookup yielded no rows.
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound indicates that a booking lookup yielded no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatsMissing is returned by the claim path when one or more of the
// requested seat IDs do not exist on the trip. Handlers should translate
// this into a 400 response since the client sent stale or bogus IDs.
var ErrSeatsMissing = errors.New("requested seats do not belong to trip")
