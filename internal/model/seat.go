package model

import "time"

// Seat status values.  A seat only ever moves AVAILABLE -> BOOKED;
// reversing that transition is not part of the booking flow.
const (
	SeatAvailable = "AVAILABLE"
	SeatBooked    = "BOOKED"
)

// Seat describes one seat on a trip.  Seats are uniquely identified by
// (trip_id, seat_number).  Seats flagged women-only may only be booked
// for female passengers; once booked, the booking passenger's gender is
// retained so browse pages can distinguish compatible seats.
//
// Fields:
//  ID           – primary key identifier.
//  TripID       – trip to which this seat belongs.
//  SeatNumber   – position in the coach (1-based, unique per trip).
//  Status       – AVAILABLE or BOOKED.
//  IsWomenOnly  – restricted-category flag.
//  BookedGender – gender of the booking passenger (nil while AVAILABLE).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Seat struct {
	ID           uint64    // seats.id
	TripID       uint64    // seats.trip_id
	SeatNumber   uint32    // seats.seat_number
	Status       string    // seats.status
	IsWomenOnly  bool      // seats.is_women_only
	BookedGender *string   // seats.booked_gender (nullable)
	CreatedAt    time.Time // seats.created_at
	UpdatedAt    time.Time // seats.updated_at
}
