package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/booking"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// BookingHandler exposes booking creation and lookup endpoints.  The
// heavy lifting lives in the booking engine; this layer binds JSON,
// extracts the optional identity and maps typed engine errors onto
// HTTP statuses.
type BookingHandler struct {
	Engine   *booking.Engine
	Bookings *repository.BookingRepo
}

func NewBookingHandler(engine *booking.Engine, bookings *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Engine: engine, Bookings: bookings}
}

// ----- DTOs -----

type passengerReq struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
	Meal   string `json:"meal"`
}

type createBookingReq struct {
	SeatIDs    []uint64       `json:"seat_ids"`
	Passengers []passengerReq `json:"passengers"`
	Contact    struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"contact"`
}

type createBookingResp struct {
	BookingID   uint64   `json:"booking_id"`
	Reference   string   `json:"reference"`
	SeatNumbers []uint32 `json:"seat_numbers"`
	TotalAmount uint32   `json:"total_amount"`
	CreatedAt   string   `json:"created_at"`
}

// CreateBooking handles POST /v1/trips/:id/bookings.  The caller may be
// a guest or a signed-in customer; OptionalAuth middleware decides
// which.  Error mapping: malformed input 400, seat eligibility 422,
// already-taken seats 409, storage failures 503.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	passengers := make([]booking.Passenger, len(req.Passengers))
	for i, p := range req.Passengers {
		passengers[i] = booking.Passenger{Name: p.Name, Age: p.Age, Gender: p.Gender, Meal: p.Meal}
	}

	breq := booking.Request{
		TripID:     tripID,
		SeatIDs:    req.SeatIDs,
		Passengers: passengers,
		Contact:    booking.Contact{Email: req.Contact.Email, Phone: req.Contact.Phone},
		Identity:   identityFrom(c),
	}

	conf, err := h.Engine.CreateBooking(c.Request().Context(), breq)
	if err != nil {
		return writeBookingError(c, err)
	}

	return c.JSON(http.StatusCreated, createBookingResp{
		BookingID:   conf.BookingID,
		Reference:   conf.Reference,
		SeatNumbers: conf.SeatNumbers,
		TotalAmount: conf.Total,
		CreatedAt:   conf.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// MyBookings handles GET /v1/my-bookings for signed-in customers.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, ok := contextUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetBooking handles GET /v1/bookings/:reference.  The reference is an
// unguessable UUID handed out at booking time, so guests can retrieve
// their own confirmation without an account.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	ref := c.Param("reference")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference required"})
	}
	d, err := h.Bookings.GetByReference(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// writeBookingError maps engine error types onto HTTP responses.  The
// payloads keep field names and seat numbers so clients can point at
// the offending part of the form.
func writeBookingError(c echo.Context, err error) error {
	var invalid *booking.InvalidRequestError
	var eligibility *booking.EligibilityError
	var conflict *booking.ConflictError
	var persistence *booking.PersistenceError

	switch {
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "invalid_request",
			"fields": invalid.Fields,
		})
	case errors.As(err, &eligibility):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "eligibility_violation",
			"seats": eligibility.SeatNumbers,
		})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "seats_unavailable",
			"seats": conflict.SeatNumbers,
		})
	case errors.As(err, &persistence):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "booking_unavailable",
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// identityFrom reads the optional JWT subject injected by OptionalAuth.
// Absent or unparseable claims mean a guest booking.
func identityFrom(c echo.Context) booking.Identity {
	if uid, ok := contextUserID(c); ok {
		return booking.Identity{UserID: uid}
	}
	return booking.Identity{Guest: true}
}

// contextUserID converts the JWT "sub" claim stored in context into a
// uint64.  Numeric claims decode as float64.
func contextUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), true
		}
	case uint64:
		if v > 0 {
			return v, true
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
