package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-booking/internal/booking"
	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine := booking.NewEngine(db,
		repository.NewTripRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		nil,
		zerolog.New(io.Discard))
	return NewBookingHandler(engine, repository.NewBookingRepo(db)), mock
}

func postBooking(t *testing.T, h *BookingHandler, tripID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/trips/"+tripID+"/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/trips/:id/bookings")
	c.SetParamNames("id")
	c.SetParamValues(tripID)
	require.NoError(t, h.CreateBooking(c))
	return rec
}

func expectTrip(mock sqlmock.Sqlmock) {
	now := time.Now().UTC()
	cols := []string{"id", "name", "bus_type", "from_city", "to_city", "departs_at",
		"price_per_seat", "total_seats", "amenities", "created_at", "updated_at"}
	mock.ExpectQuery("FROM trips WHERE id").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Night Express", "SLEEPER", "Pune", "Mumbai",
				now.Add(24*time.Hour), 500, 40, "wifi", now, now))
}

func seatRows(entries ...[4]interface{}) *sqlmock.Rows {
	cols := []string{"id", "trip_id", "seat_number", "status", "is_women_only",
		"booked_gender", "created_at", "updated_at"}
	now := time.Now().UTC()
	rows := sqlmock.NewRows(cols)
	for _, e := range entries {
		rows.AddRow(e[0], 7, e[1], e[2], e[3], nil, now, now)
	}
	return rows
}

const validBody = `{
  "seat_ids": [11],
  "passengers": [{"name":"Asha","age":34,"gender":"Female","meal":"VEG"}],
  "contact": {"email":"asha@example.com","phone":"9876543210"}
}`

func TestCreateBooking_Created(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectTrip(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(seatRows([4]interface{}{11, 1, model.SeatAvailable, false}))
	mock.ExpectExec("UPDATE seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("INSERT INTO booking_passengers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := postBooking(t, h, "7", validBody)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp createBookingResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(42), resp.BookingID)
	assert.NotEmpty(t, resp.Reference)
	assert.Equal(t, []uint32{1}, resp.SeatNumbers)
	assert.Equal(t, uint32(600), resp.TotalAmount) // 500 fare + 100 meal
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_BadRequest(t *testing.T) {
	h, mock := newBookingHandler(t)

	body := `{"seat_ids": [], "passengers": [], "contact": {"email":"x","phone":"1"}}`
	rec := postBooking(t, h, "7", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
	assert.Contains(t, resp.Fields, "seat_ids")
	assert.Contains(t, resp.Fields, "contact.email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_EligibilityUnprocessable(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectTrip(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(seatRows([4]interface{}{11, 5, model.SeatAvailable, true}))
	mock.ExpectRollback()

	body := `{
	  "seat_ids": [11],
	  "passengers": [{"name":"Ravi","age":36,"gender":"Male","meal":"NONE"}],
	  "contact": {"email":"ravi@example.com","phone":"9876543210"}
	}`
	rec := postBooking(t, h, "7", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error string   `json:"error"`
		Seats []uint32 `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "eligibility_violation", resp.Error)
	assert.Equal(t, []uint32{5}, resp.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_Conflict(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectTrip(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(seatRows([4]interface{}{11, 1, model.SeatBooked, false}))
	mock.ExpectRollback()

	rec := postBooking(t, h, "7", validBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error string   `json:"error"`
		Seats []uint32 `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "seats_unavailable", resp.Error)
	assert.Equal(t, []uint32{1}, resp.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_PersistenceUnavailable(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectTrip(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(seatRows([4]interface{}{11, 1, model.SeatAvailable, false}))
	mock.ExpectExec("UPDATE seats SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	rec := postBooking(t, h, "7", validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "booking_unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_InvalidTripParam(t *testing.T) {
	h, mock := newBookingHandler(t)
	rec := postBooking(t, h, "abc", validBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityFrom(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	t.Run("GuestWhenUnset", func(t *testing.T) {
		id := identityFrom(c)
		assert.True(t, id.Guest)
		assert.Zero(t, id.UserID)
	})

	t.Run("JWTFloatSubject", func(t *testing.T) {
		c.Set("user_id", float64(99))
		id := identityFrom(c)
		assert.False(t, id.Guest)
		assert.Equal(t, uint64(99), id.UserID)
	})
}
