package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/bus-seat-booking/internal/metrics"
	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/queue"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// Publisher delivers a confirmation event after commit.  Failures are
// logged and ignored: the booking is already durable by the time the
// event is built.  A nil Publisher disables event delivery.
type Publisher func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// Engine coordinates the reservation transaction.  One CreateBooking
// call moves through validation, the seat claim, pricing and
// persistence as a single database transaction: every failure before
// commit rolls the transaction back, so inventory can never hold a
// claim without a matching booking row, and no booking row can exist
// without its seats flipped.
type Engine struct {
	db       *sql.DB
	trips    *repository.TripRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	publish  Publisher
	log      zerolog.Logger
}

// NewEngine constructs an Engine.  db must be the handle the
// repositories were built on; the engine opens its transactions there.
func NewEngine(db *sql.DB, trips *repository.TripRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo, publish Publisher, log zerolog.Logger) *Engine {
	if db == nil || trips == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{db: db, trips: trips, seats: seats, bookings: bookings, publish: publish, log: log}
}

// CreateBooking executes one reservation request end to end.  Steps, in
// strict order: structural validation, eligibility check, seat claim,
// pricing, persistence.  The first three fail fast with no state
// change; once the claim succeeds the remaining steps run to completion
// or the whole transaction rolls back.  On success the returned
// Confirmation carries the committed total and seat numbers.
func (e *Engine) CreateBooking(ctx context.Context, req Request) (*Confirmation, error) {
	if verr := validateRequest(req); verr != nil {
		metrics.IncBookingRejected("invalid_request")
		return nil, verr
	}

	trip, err := e.trips.GetByID(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			metrics.IncBookingRejected("invalid_request")
			return nil, &InvalidRequestError{Fields: []string{"trip_id"}}
		}
		return nil, &PersistenceError{Err: err}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	locked, err := e.seats.LockForClaimTx(ctx, tx, req.TripID, req.SeatIDs)
	if err != nil {
		if errors.Is(err, repository.ErrSeatsMissing) {
			metrics.IncBookingRejected("invalid_request")
			return nil, &InvalidRequestError{Fields: []string{"seat_ids"}}
		}
		return nil, &PersistenceError{Err: err}
	}

	// Re-sequence the locked rows to the request's pairing order:
	// passenger i occupies the seat at SeatIDs[i].
	byID := make(map[uint64]model.Seat, len(locked))
	for _, s := range locked {
		byID[s.ID] = s
	}
	ordered := make([]model.Seat, len(req.SeatIDs))
	for i, id := range req.SeatIDs {
		ordered[i] = byID[id]
	}

	// Eligibility runs under the row locks but before any write, so a
	// violation leaves inventory bit-identical.
	if everr := checkEligibility(ordered, req.Passengers); everr != nil {
		metrics.IncBookingRejected("eligibility")
		return nil, everr
	}

	// All-or-nothing claim: any seat no longer AVAILABLE fails the
	// whole request. First conflict wins; there is no queueing.
	var conflicted []uint32
	for _, s := range ordered {
		if s.Status != model.SeatAvailable {
			conflicted = append(conflicted, s.SeatNumber)
		}
	}
	if len(conflicted) > 0 {
		metrics.IncSeatConflict()
		return nil, &ConflictError{SeatNumbers: conflicted}
	}

	claims := make([]repository.SeatClaim, len(ordered))
	seatNumbers := make([]uint32, len(ordered))
	for i, s := range ordered {
		claims[i] = repository.SeatClaim{SeatID: s.ID, Gender: req.Passengers[i].Gender}
		seatNumbers[i] = s.SeatNumber
	}
	if err := e.seats.MarkBookedTx(ctx, tx, req.TripID, claims); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	total := Quote(trip.PricePerSeat, req.Passengers)

	rec := &model.Booking{
		Reference:    uuid.NewString(),
		TripID:       req.TripID,
		ContactEmail: req.Contact.Email,
		ContactPhone: req.Contact.Phone,
		TotalAmount:  total,
	}
	if !req.Identity.Guest {
		uid := req.Identity.UserID
		rec.UserID = &uid
	}
	if err := e.bookings.CreateTx(ctx, tx, rec); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	manifest := make([]model.BookingPassenger, len(req.Passengers))
	for i, p := range req.Passengers {
		manifest[i] = model.BookingPassenger{
			BookingID:  rec.ID,
			SeatNumber: seatNumbers[i],
			Name:       p.Name,
			Age:        uint8(p.Age),
			Gender:     p.Gender,
			Meal:       p.Meal,
		}
	}
	if err := e.bookings.CreatePassengersBulkTx(ctx, tx, manifest); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	committed = true

	metrics.IncBookingConfirmed()
	e.log.Info().
		Str("reference", rec.Reference).
		Uint64("trip_id", trip.ID).
		Uint32("total", total).
		Int("seats", len(seatNumbers)).
		Bool("guest", req.Identity.Guest).
		Msg("booking confirmed")

	if e.publish != nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:    rec.ID,
			Reference:    rec.Reference,
			TripID:       trip.ID,
			TripName:     trip.Name,
			FromCity:     trip.FromCity,
			ToCity:       trip.ToCity,
			DepartsAt:    trip.DepartsAt.UTC().Format(time.RFC3339),
			SeatNumbers:  seatNumbers,
			TotalAmount:  total,
			ContactEmail: req.Contact.Email,
			ConfirmedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if perr := e.publish(ctx, ev); perr != nil {
			e.log.Warn().Err(perr).Str("reference", rec.Reference).Msg("booking event publish failed")
		}
	}

	return &Confirmation{
		BookingID:   rec.ID,
		Reference:   rec.Reference,
		SeatNumbers: seatNumbers,
		Total:       total,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
