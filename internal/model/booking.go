package model

import "time"

// Booking is the durable result of a successful reservation
// transaction.  It groups the seats purchased in a single request under
// one total and one contact.  Rows are immutable once created.
//
// Fields:
//  ID           – primary key identifier.
//  Reference    – opaque UUID returned to the client for correlation.
//  TripID       – trip being booked.
//  UserID       – registered account that made the booking (nil for guests).
//  ContactEmail – e-mail address the ticket is sent to.
//  ContactPhone – 10 digit contact number.
//  TotalAmount  – computed total in whole currency units.
//  CreatedAt    – creation timestamp.
type Booking struct {
	ID           uint64    // bookings.id
	Reference    string    // bookings.reference
	TripID       uint64    // bookings.trip_id
	UserID       *uint64   // bookings.user_id (nullable)
	ContactEmail string    // bookings.contact_email
	ContactPhone string    // bookings.contact_phone
	TotalAmount  uint32    // bookings.total_amount
	CreatedAt    time.Time // bookings.created_at
}

// BookingPassenger is one entry of a booking's passenger manifest.
// Each record pairs a passenger with exactly one seat of the booking.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – booking this passenger belongs to.
//  SeatNumber – seat occupied by this passenger.
//  Name       – passenger name as entered at purchase time.
//  Age        – passenger age (1–120).
//  Gender     – Male or Female.
//  Meal       – NONE, VEG or NON_VEG.
type BookingPassenger struct {
	ID         uint64 // booking_passengers.id
	BookingID  uint64 // booking_passengers.booking_id
	SeatNumber uint32 // booking_passengers.seat_number
	Name       string // booking_passengers.name
	Age        uint8  // booking_passengers.age
	Gender     string // booking_passengers.gender
	Meal       string // booking_passengers.meal
}
