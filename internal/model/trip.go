package model

import "time"

// Trip represents a scheduled bus departure between two cities.  A trip
// owns a fixed set of seats created alongside it and is immutable once
// those seats exist, apart from administrative correction.  This struct
// corresponds to a row in the `trips` table.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the service (e.g. "Mumbai Express").
//  BusType      – coach model/category (e.g. "Mercedes Multi-Axle").
//  FromCity     – origin city.
//  ToCity       – destination city.
//  DepartsAt    – scheduled departure timestamp (UTC).
//  PricePerSeat – fare for a single seat in whole currency units.
//  TotalSeats   – number of seats created for the trip.
//  Amenities    – comma separated amenity tags (e.g. "WiFi,Charging").
//  CreatedAt    – timestamp when the trip was created.
//  UpdatedAt    – timestamp of last update.
type Trip struct {
	ID           uint64    // trips.id
	Name         string    // trips.name
	BusType      string    // trips.bus_type
	FromCity     string    // trips.from_city
	ToCity       string    // trips.to_city
	DepartsAt    time.Time // trips.departs_at
	PricePerSeat uint32    // trips.price_per_seat
	TotalSeats   uint32    // trips.total_seats
	Amenities    string    // trips.amenities
	CreatedAt    time.Time // trips.created_at
	UpdatedAt    time.Time // trips.updated_at
}
