package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

var testDeparture = time.Date(2026, 9, 14, 8, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng := NewEngine(db,
		repository.NewTripRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		nil,
		zerolog.New(io.Discard))
	return eng, mock
}

func tripColumns() []string {
	return []string{"id", "name", "bus_type", "from_city", "to_city", "departs_at",
		"price_per_seat", "total_seats", "amenities", "created_at", "updated_at"}
}

func seatColumns() []string {
	return []string{"id", "trip_id", "seat_number", "status", "is_women_only",
		"booked_gender", "created_at", "updated_at"}
}

func expectTripLookup(mock sqlmock.Sqlmock, pricePerSeat uint32) {
	now := time.Now().UTC()
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(tripColumns()).
			AddRow(7, "Night Express", "SLEEPER", "Pune", "Mumbai", testDeparture,
				pricePerSeat, 40, "wifi,water", now, now))
}

func addSeatRow(rows *sqlmock.Rows, id uint64, number uint32, status string, womenOnly bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, 7, number, status, womenOnly, nil, now, now)
}

func TestCreateBooking_Success(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 500)
	mock.ExpectBegin()
	// Locked rows come back in seat_number order regardless of the
	// request order.
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 1, model.SeatAvailable, false)
	addSeatRow(rows, 12, 2, model.SeatAvailable, false)
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows)
	mock.ExpectExec("UPDATE seats SET status").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(42, 1))
	created := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec("INSERT INTO booking_passengers").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	// Seat 12 (number 2) first: the confirmation must preserve the
	// request's pairing order, not the lock order.
	req := Request{
		TripID:  7,
		SeatIDs: []uint64{12, 11},
		Passengers: []Passenger{
			{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealVeg},
			{Name: "Ravi", Age: 36, Gender: GenderMale, Meal: MealNone},
		},
		Contact:  Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity: Identity{Guest: true},
	}

	conf, err := eng.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, conf)

	assert.Equal(t, uint64(42), conf.BookingID)
	assert.Equal(t, []uint32{2, 1}, conf.SeatNumbers)
	assert.Equal(t, uint32(2*500+MealSurcharge), conf.Total)
	assert.Equal(t, created, conf.CreatedAt)
	_, uuidErr := uuid.Parse(conf.Reference)
	assert.NoError(t, uuidErr, "reference must be a UUID")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_InvalidRequestSkipsDatabase(t *testing.T) {
	eng, mock := newTestEngine(t)

	req := Request{TripID: 0}
	_, err := eng.CreateBooking(context.Background(), req)

	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "trip_id")
	// No expectations registered: any SQL issued would have failed the mock.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_UnknownTrip(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectQuery("FROM trips WHERE id").WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(tripColumns()))

	req := Request{
		TripID:     7,
		SeatIDs:    []uint64{11},
		Passengers: []Passenger{{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealNone}},
		Contact:    Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity:   Identity{Guest: true},
	}
	_, err := eng.CreateBooking(context.Background(), req)

	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"trip_id"}, invalid.Fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_MissingSeatRollsBack(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 500)
	mock.ExpectBegin()
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 1, model.SeatAvailable, false)
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows) // one of two requested
	mock.ExpectRollback()

	req := Request{
		TripID:  7,
		SeatIDs: []uint64{11, 99},
		Passengers: []Passenger{
			{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealNone},
			{Name: "Ravi", Age: 36, Gender: GenderMale, Meal: MealNone},
		},
		Contact:  Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity: Identity{Guest: true},
	}
	_, err := eng.CreateBooking(context.Background(), req)

	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"seat_ids"}, invalid.Fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_EligibilityViolationRollsBack(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 500)
	mock.ExpectBegin()
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 5, model.SeatAvailable, true) // women-only
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows)
	mock.ExpectRollback()

	req := Request{
		TripID:     7,
		SeatIDs:    []uint64{11},
		Passengers: []Passenger{{Name: "Ravi", Age: 36, Gender: GenderMale, Meal: MealNone}},
		Contact:    Contact{Email: "ravi@example.com", Phone: "9876543210"},
		Identity:   Identity{Guest: true},
	}
	_, err := eng.CreateBooking(context.Background(), req)

	var eligibility *EligibilityError
	require.ErrorAs(t, err, &eligibility)
	assert.Equal(t, []uint32{5}, eligibility.SeatNumbers)
	// No UPDATE was expected: a flip would have failed the mock.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_ConflictFailsWholeRequest(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 500)
	mock.ExpectBegin()
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 1, model.SeatBooked, false)
	addSeatRow(rows, 12, 2, model.SeatAvailable, false)
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows)
	mock.ExpectRollback()

	req := Request{
		TripID:  7,
		SeatIDs: []uint64{11, 12},
		Passengers: []Passenger{
			{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealNone},
			{Name: "Ravi", Age: 36, Gender: GenderMale, Meal: MealNone},
		},
		Contact:  Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity: Identity{Guest: true},
	}
	_, err := eng.CreateBooking(context.Background(), req)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint32{1}, conflict.SeatNumbers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_PersistenceFailureRollsBackClaim(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 500)
	mock.ExpectBegin()
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 1, model.SeatAvailable, false)
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows)
	mock.ExpectExec("UPDATE seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	boom := errors.New("disk full")
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(boom)
	mock.ExpectRollback()

	req := Request{
		TripID:     7,
		SeatIDs:    []uint64{11},
		Passengers: []Passenger{{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealNone}},
		Contact:    Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity:   Identity{Guest: true},
	}
	_, err := eng.CreateBooking(context.Background(), req)

	var persistence *PersistenceError
	require.ErrorAs(t, err, &persistence)
	assert.ErrorIs(t, persistence.Err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_RegisteredUserAttached(t *testing.T) {
	eng, mock := newTestEngine(t)

	expectTripLookup(mock, 300)
	mock.ExpectBegin()
	rows := sqlmock.NewRows(seatColumns())
	addSeatRow(rows, 11, 1, model.SeatAvailable, false)
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(rows)
	mock.ExpectExec("UPDATE seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	// user_id is the third insert argument; require it to be the caller's ID.
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), uint64(7), uint64(99), "asha@example.com", "9876543210", uint32(300)).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("INSERT INTO booking_passengers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := Request{
		TripID:     7,
		SeatIDs:    []uint64{11},
		Passengers: []Passenger{{Name: "Asha", Age: 34, Gender: GenderFemale, Meal: MealNone}},
		Contact:    Contact{Email: "asha@example.com", Phone: "9876543210"},
		Identity:   Identity{UserID: 99},
	}
	conf, err := eng.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(43), conf.BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
