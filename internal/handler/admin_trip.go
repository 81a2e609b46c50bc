package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// AdminHandler carries the repositories behind admin-only endpoints.
// Trip creation is transactional: the trip row and its full seat map
// are inserted together so customers never see a trip without seats.
type AdminHandler struct {
	Trips *repository.TripRepo
	Seats *repository.SeatRepo
}

func NewAdminHandler(trips *repository.TripRepo, seats *repository.SeatRepo) *AdminHandler {
	return &AdminHandler{Trips: trips, Seats: seats}
}

// CreateTrip handles POST /v1/trips (ADMIN only).  women_only_seats
// lists seat numbers reserved for female passengers; out-of-range
// numbers are rejected up front.
func (h *AdminHandler) CreateTrip(c echo.Context) error {
	var body struct {
		Name           string   `json:"name"`
		BusType        string   `json:"bus_type"`
		FromCity       string   `json:"from_city"`
		ToCity         string   `json:"to_city"`
		DepartsAt      string   `json:"departs_at"` // RFC3339
		PricePerSeat   uint32   `json:"price_per_seat"`
		TotalSeats     uint32   `json:"total_seats"`
		Amenities      []string `json:"amenities"`
		WomenOnlySeats []uint32 `json:"women_only_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	body.Name = strings.TrimSpace(body.Name)
	body.FromCity = strings.TrimSpace(body.FromCity)
	body.ToCity = strings.TrimSpace(body.ToCity)
	if body.Name == "" || body.FromCity == "" || body.ToCity == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name, from_city and to_city are required"})
	}
	if body.TotalSeats == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "total_seats must be positive"})
	}
	if body.PricePerSeat == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "price_per_seat must be positive"})
	}

	departsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(body.DepartsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid departs_at format"})
	}
	if !departsAt.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "departs_at must be in the future"})
	}

	womenOnly := make(map[uint32]bool, len(body.WomenOnlySeats))
	for _, n := range body.WomenOnlySeats {
		if n == 0 || n > body.TotalSeats {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "women_only_seats out of range"})
		}
		womenOnly[n] = true
	}

	trip := &model.Trip{
		Name:         body.Name,
		BusType:      strings.TrimSpace(body.BusType),
		FromCity:     body.FromCity,
		ToCity:       body.ToCity,
		DepartsAt:    departsAt.UTC(),
		PricePerSeat: body.PricePerSeat,
		TotalSeats:   body.TotalSeats,
		Amenities:    strings.Join(body.Amenities, ","),
	}

	ctx := c.Request().Context()
	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create trip"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Trips.CreateTx(ctx, tx, trip); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create trip"})
	}
	if err := h.Seats.CreateBulkTx(ctx, tx, trip.ID, trip.TotalSeats, womenOnly); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create seats"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create trip"})
	}
	committed = true

	return c.JSON(http.StatusCreated, trip)
}
