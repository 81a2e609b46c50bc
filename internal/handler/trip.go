// Package handler exposes HTTP handlers for both authenticated and
// public endpoints.  This file defines the public trip browsing API:
// unauthenticated users can search upcoming trips and inspect a single
// trip's seat map before booking.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// TripHandler aggregates repositories needed for trip browsing.
type TripHandler struct {
	Trips *repository.TripRepo
	Seats *repository.SeatRepo
}

func NewTripHandler(trips *repository.TripRepo, seats *repository.SeatRepo) *TripHandler {
	return &TripHandler{Trips: trips, Seats: seats}
}

// PublicSeat is one seat in the trip detail seat map.  Booked seats
// carry the booking passenger's gender so seat pickers can render a
// women-only seat booked by a female passenger differently from other
// occupied seats; no further identity is exposed.
type PublicSeat struct {
	ID           uint64  `json:"id"`
	SeatNumber   uint32  `json:"seat_number"`
	Status       string  `json:"status"`
	IsWomenOnly  bool    `json:"is_women_only"`
	BookedGender *string `json:"booked_gender,omitempty"`
}

// TripDetail is the detail response: the trip row plus its full seat map.
type TripDetail struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	BusType      string       `json:"bus_type"`
	FromCity     string       `json:"from_city"`
	ToCity       string       `json:"to_city"`
	DepartsAt    time.Time    `json:"departs_at"`
	PricePerSeat uint32       `json:"price_per_seat"`
	TotalSeats   uint32       `json:"total_seats"`
	Amenities    string       `json:"amenities"`
	Seats        []PublicSeat `json:"seats"`
}

// ListTrips returns upcoming trips matching the optional from, to and
// date query parameters.  Response JSON contains an "items" array.
func (h *TripHandler) ListTrips(c echo.Context) error {
	ctx := c.Request().Context()

	q := repository.TripSearchQuery{
		FromCity: c.QueryParam("from"),
		ToCity:   c.QueryParam("to"),
	}
	if ds := c.QueryParam("date"); ds != "" {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		q.Date = &d
	}

	trips, err := h.Trips.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": trips})
}

// GetTrip returns a single trip with its seat map so clients can render
// the seat picker.  Booked seats stay in the map with their status so
// the layout is stable.
func (h *TripHandler) GetTrip(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	t, err := h.Trips.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	seats, err := h.Seats.GetByTrip(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := TripDetail{
		ID:           t.ID,
		Name:         t.Name,
		BusType:      t.BusType,
		FromCity:     t.FromCity,
		ToCity:       t.ToCity,
		DepartsAt:    t.DepartsAt,
		PricePerSeat: t.PricePerSeat,
		TotalSeats:   t.TotalSeats,
		Amenities:    t.Amenities,
		Seats:        make([]PublicSeat, 0, len(seats)),
	}
	for _, s := range seats {
		resp.Seats = append(resp.Seats, PublicSeat{
			ID:           s.ID,
			SeatNumber:   s.SeatNumber,
			Status:       s.Status,
			IsWomenOnly:  s.IsWomenOnly,
			BookedGender: s.BookedGender,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
