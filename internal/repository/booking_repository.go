package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their passenger
// manifests.  Bookings group together one or more seats purchased for a
// trip under a single total; passengers are stored in the
// booking_passengers table.  All timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction.  It populates the generated ID and creation timestamp on
// the provided record.  The caller must commit or roll back the
// transaction; the booking engine is the sole caller and only commits
// after the seat claim and the full manifest have been written.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (reference, trip_id, user_id, contact_email, contact_phone, total_amount)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var userID interface{}
	if b.UserID != nil {
		userID = *b.UserID
	}
	result, err := tx.ExecContext(ctx, q, b.Reference, b.TripID, userID, b.ContactEmail, b.ContactPhone, b.TotalAmount)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row to populate the DB-assigned creation timestamp.
	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt)
}

// CreatePassengersBulkTx inserts the passenger manifest in a single
// statement.  The caller must supply the booking ID in each record.
// Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreatePassengersBulkTx(ctx context.Context, tx *sql.Tx, passengers []model.BookingPassenger) error {
	if len(passengers) == 0 {
		return nil
	}
	query := `INSERT INTO booking_passengers (booking_id, seat_number, name, age, gender, meal) VALUES `
	args := make([]interface{}, 0, len(passengers)*6)
	for i, p := range passengers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, p.BookingID, p.SeatNumber, p.Name, p.Age, p.Gender, p.Meal)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// PassengerEntry is one manifest row as shown on booking detail pages.
type PassengerEntry struct {
	SeatNumber uint32 `json:"seat_number"`
	Name       string `json:"name"`
	Age        uint8  `json:"age"`
	Gender     string `json:"gender"`
	Meal       string `json:"meal"`
}

// BookingDetail encapsulates a booking along with trip information and
// its passenger manifest.  It is returned by ListByUser for display to
// customers reviewing their bookings.
type BookingDetail struct {
	ID          uint64           `json:"id"`
	Reference   string           `json:"reference"`
	TripID      uint64           `json:"trip_id"`
	TripName    string           `json:"trip_name"`
	FromCity    string           `json:"from_city"`
	ToCity      string           `json:"to_city"`
	DepartsAt   time.Time        `json:"departs_at"`
	TotalAmount uint32           `json:"total_amount"`
	CreatedAt   time.Time        `json:"created_at"`
	Passengers  []PassengerEntry `json:"passengers"`
}

// ListByUser returns all bookings of the given user along with trip and
// passenger details, newest first.  When no bookings exist an empty
// slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.reference, b.trip_id, t.name, t.from_city, t.to_city, t.departs_at,
	                  b.total_amount, b.created_at
	           FROM bookings b
	           JOIN trips t ON t.id = b.trip_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.Reference, &d.TripID, &d.TripName, &d.FromCity, &d.ToCity, &d.DepartsAt,
			&d.TotalAmount, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Passengers = []PassengerEntry{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	// Populate passenger manifests for all bookings in a single query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	passQ := `SELECT booking_id, seat_number, name, age, gender, meal
	          FROM booking_passengers
	          WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, seat_number`
	prows, err := r.db.QueryContext(ctx, passQ, ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var bid uint64
		var p PassengerEntry
		if err := prows.Scan(&bid, &p.SeatNumber, &p.Name, &p.Age, &p.Gender, &p.Meal); err != nil {
			return nil, err
		}
		idx, ok := index[bid]
		if !ok {
			continue
		}
		details[idx].Passengers = append(details[idx].Passengers, p)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByReference returns a single booking by its public reference along
// with its passenger manifest.  It is used by confirmation pages that
// only hold the reference handed out at booking time.  Returns
// ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*BookingDetail, error) {
	const q = `SELECT b.id, b.reference, b.trip_id, t.name, t.from_city, t.to_city, t.departs_at,
	                  b.total_amount, b.created_at
	           FROM bookings b
	           JOIN trips t ON t.id = b.trip_id
	           WHERE b.reference = ?`
	var d BookingDetail
	err := r.db.QueryRowContext(ctx, q, reference).Scan(
		&d.ID, &d.Reference, &d.TripID, &d.TripName, &d.FromCity, &d.ToCity, &d.DepartsAt,
		&d.TotalAmount, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	d.Passengers = []PassengerEntry{}
	const passQ = `SELECT seat_number, name, age, gender, meal
	               FROM booking_passengers
	               WHERE booking_id = ?
	               ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, passQ, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p PassengerEntry
		if err := rows.Scan(&p.SeatNumber, &p.Name, &p.Age, &p.Gender, &p.Meal); err != nil {
			return nil, err
		}
		d.Passengers = append(d.Passengers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}
