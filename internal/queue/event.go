package queue

// BookingConfirmedEvent is published when a reservation commits.  It
// contains enough information for downstream consumers to log, notify
// or trigger analytics without querying the primary database.  Ticket
// delivery itself is handled by a separate system consuming the same
// queue.
type BookingConfirmedEvent struct {
	BookingID    uint64   `json:"booking_id"`
	Reference    string   `json:"reference"`
	TripID       uint64   `json:"trip_id"`
	TripName     string   `json:"trip_name"`
	FromCity     string   `json:"from_city"`
	ToCity       string   `json:"to_city"`
	DepartsAt    string   `json:"departs_at"`
	SeatNumbers  []uint32 `json:"seats"`
	TotalAmount  uint32   `json:"total_amount"`
	ContactEmail string   `json:"contact_email"`
	ConfirmedAt  string   `json:"confirmed_at"`
}
