// Package booking implements the seat reservation transaction engine.
// It takes a requested set of seats plus passenger data for one trip
// and either commits all of them as a single paid booking or fails
// cleanly with no partial state.  Seat status is only ever written
// here; browse handlers read it through the repositories.
package booking

import "time"

// Gender values accepted for passengers.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Meal preference values.  Any preference other than NONE adds the
// MealSurcharge to the total.
const (
	MealNone   = "NONE"
	MealVeg    = "VEG"
	MealNonVeg = "NON_VEG"
)

// Passenger is the ephemeral per-seat input of a reservation request.
// One passenger maps to exactly one seat within a single request.
type Passenger struct {
	Name   string
	Age    int
	Gender string
	Meal   string
}

// Contact carries the booking-level contact details the ticket is
// delivered to.
type Contact struct {
	Email string
	Phone string
}

// Identity is the explicit caller identity passed into CreateBooking.
// It is never read from ambient state.  Guest bookings carry Guest=true
// and a zero UserID; registered callers carry their account ID.
type Identity struct {
	UserID uint64
	Guest  bool
}

// Request is the transient input bundle of one reservation attempt.  It
// is never persisted on its own: it either becomes a Booking or is
// discarded.  Passengers are paired with SeatIDs by position.
type Request struct {
	TripID     uint64
	SeatIDs    []uint64
	Passengers []Passenger
	Contact    Contact
	Identity   Identity
}

// Confirmation is returned on success and is the single source of truth
// the caller uses to report the booking.  SeatNumbers follow the order
// of the request's passenger list.
type Confirmation struct {
	BookingID   uint64
	Reference   string
	SeatNumbers []uint32
	Total       uint32
	CreatedAt   time.Time
}
