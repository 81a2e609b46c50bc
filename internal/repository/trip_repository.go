// Package repository contains data access logic for trips, seats and
// bookings. This file defines the Trip repository. A Trip represents a
// scheduled bus departure; its seats are created in the same transaction
// so a trip is never visible without a full seat map.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"strings"      // strings for building search predicates
	"time"         // time for departure timestamps

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

// TripRepo manages persistence for trips.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories, which the booking engine
// needs for its claim-and-persist sequence.
func (r *TripRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new trip using the provided transaction.  The
// caller must commit or roll back.  On success the generated ID and
// DB-default timestamps are populated on the given Trip.  Seat rows are
// created separately by SeatRepo.CreateBulkTx within the same
// transaction so the trip and its seat map appear atomically.
func (r *TripRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	const q = `INSERT INTO trips (name, bus_type, from_city, to_city, departs_at, price_per_seat, total_seats, amenities)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.Name, t.BusType, t.FromCity, t.ToCity,
		t.DepartsAt.UTC().Format("2006-01-02 15:04:05"),
		t.PricePerSeat, t.TotalSeats, t.Amenities)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the row to populate timestamps and defaults.
	const sel = `SELECT id, name, bus_type, from_city, to_city, departs_at, price_per_seat, total_seats, amenities, created_at, updated_at
	             FROM trips WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, t.ID).Scan(
		&t.ID, &t.Name, &t.BusType, &t.FromCity, &t.ToCity, &t.DepartsAt,
		&t.PricePerSeat, &t.TotalSeats, &t.Amenities, &t.CreatedAt, &t.UpdatedAt,
	)
}

// GetByID retrieves a trip by its ID.  It returns ErrTripNotFound when
// there is no matching row.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	const q = `SELECT id, name, bus_type, from_city, to_city, departs_at, price_per_seat, total_seats, amenities, created_at, updated_at
	           FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.BusType, &t.FromCity, &t.ToCity, &t.DepartsAt,
		&t.PricePerSeat, &t.TotalSeats, &t.Amenities, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// TripSearchQuery defines filters for listing trips on browse pages.
// Empty fields are ignored.  Date, when set, restricts departures to
// that calendar day (UTC).
type TripSearchQuery struct {
	FromCity string
	ToCity   string
	Date     *time.Time
}

// TripRow is the public projection of a trip returned by Search.  It
// adds the live available seat count used by the trip list page.
type TripRow struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	BusType        string    `json:"bus_type"`
	FromCity       string    `json:"from_city"`
	ToCity         string    `json:"to_city"`
	DepartsAt      time.Time `json:"departs_at"`
	PricePerSeat   uint32    `json:"price_per_seat"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	Amenities      string    `json:"amenities"`
}

// Search returns upcoming trips matching the query, ordered by
// departure time ascending.  The available seat count is derived from
// the seats table in the same statement so list pages never show a
// stale aggregate column.
func (r *TripRepo) Search(ctx context.Context, q TripSearchQuery) ([]TripRow, error) {
	where := []string{"t.departs_at >= UTC_TIMESTAMP()"}
	args := []any{}

	if q.FromCity != "" {
		where = append(where, "LOWER(t.from_city) = ?")
		args = append(args, strings.ToLower(q.FromCity))
	}
	if q.ToCity != "" {
		where = append(where, "LOWER(t.to_city) = ?")
		args = append(args, strings.ToLower(q.ToCity))
	}
	if q.Date != nil {
		where = append(where, "DATE(t.departs_at) = ?")
		args = append(args, q.Date.UTC().Format("2006-01-02"))
	}

	query := `SELECT t.id, t.name, t.bus_type, t.from_city, t.to_city, t.departs_at,
	                 t.price_per_seat, t.total_seats,
	                 COALESCE(SUM(s.status = 'AVAILABLE'), 0) AS available_seats,
	                 t.amenities
	          FROM trips t
	          LEFT JOIN seats s ON s.trip_id = t.id
	          WHERE ` + strings.Join(where, " AND ") + `
	          GROUP BY t.id
	          ORDER BY t.departs_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TripRow, 0)
	for rows.Next() {
		var d TripRow
		if err := rows.Scan(
			&d.ID, &d.Name, &d.BusType, &d.FromCity, &d.ToCity, &d.DepartsAt,
			&d.PricePerSeat, &d.TotalSeats, &d.AvailableSeats, &d.Amenities,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
