package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"fmt"          // fmt for claim error details
	"strings"      // strings for IN clause placeholders

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

// SeatRepo provides methods to work with seats in the database.  Seat
// status is owned exclusively by this repository; the booking engine is
// the only caller of the mutating methods, and all of them run inside a
// caller-supplied transaction.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts seats 1..total for a trip in a single statement.
// Seat numbers present in womenOnly are flagged as the restricted
// category.  It participates in the caller's transaction so a trip and
// its seat map are created atomically.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tripID uint64, total uint32, womenOnly map[uint32]bool) error {
	if total == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, seat_number, status, is_women_only) VALUES `
	args := make([]interface{}, 0, total*4)
	for n := uint32(1); n <= total; n++ {
		if n > 1 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, tripID, n, model.SeatAvailable, womenOnly[n])
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByTrip retrieves all seats of a trip ordered by seat number.  This
// is the read model exposed to browse pages: number, status, the
// women-only flag and, for booked seats, the booking passenger's gender.
func (r *SeatRepo) GetByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	const q = `SELECT id, trip_id, seat_number, status, is_women_only, booked_gender, created_at, updated_at
	           FROM seats
	           WHERE trip_id = ?
	           ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		var gender sql.NullString
		if err := rows.Scan(
			&s.ID, &s.TripID, &s.SeatNumber, &s.Status, &s.IsWomenOnly,
			&gender, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if gender.Valid {
			g := gender.String
			s.BookedGender = &g
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LockForClaimTx loads the requested seats of a trip and acquires an
// exclusive row lock on each of them for the remainder of the
// transaction (SELECT ... FOR UPDATE).  Among concurrent claims over
// overlapping seats, only one transaction holds the locks at a time, so
// the check-and-flip performed afterwards behaves atomically per seat
// row without locking the rest of the trip.  It returns ErrSeatsMissing
// when any requested ID does not belong to the trip.
func (r *SeatRepo) LockForClaimTx(ctx context.Context, tx *sql.Tx, tripID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, ErrSeatsMissing
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
	// Lock in a deterministic order to avoid deadlocks between claims
	// that request overlapping sets in different orders.
	query := `SELECT id, trip_id, seat_number, status, is_women_only, booked_gender, created_at, updated_at
	          FROM seats
	          WHERE trip_id = ? AND id IN (` + placeholders + `)
	          ORDER BY seat_number
	          FOR UPDATE`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, tripID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		var gender sql.NullString
		if err := rows.Scan(
			&s.ID, &s.TripID, &s.SeatNumber, &s.Status, &s.IsWomenOnly,
			&gender, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if gender.Valid {
			g := gender.String
			s.BookedGender = &g
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) != len(seatIDs) {
		return nil, ErrSeatsMissing
	}
	return result, nil
}

// SeatClaim pairs a locked seat with the gender of the passenger who
// will occupy it.  MarkBookedTx records this gender on the seat row.
type SeatClaim struct {
	SeatID uint64
	Gender string
}

// MarkBookedTx flips the given seats of a trip from AVAILABLE to BOOKED
// in one statement, recording per seat the booking passenger's gender.
// The status guard in the WHERE clause makes the update a no-op for any
// seat that is no longer AVAILABLE; callers have already verified
// availability under lock, so an affected-row mismatch indicates a bug
// and is surfaced as an error rather than silently committed.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, tripID uint64, claims []SeatClaim) error {
	if len(claims) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ?, booked_gender = CASE id `
	args := make([]interface{}, 0, len(claims)*3+2)
	args = append(args, model.SeatBooked)
	ids := make([]string, 0, len(claims))
	for _, cl := range claims {
		query += "WHEN ? THEN ? "
		args = append(args, cl.SeatID, cl.Gender)
		ids = append(ids, "?")
	}
	query += `END WHERE trip_id = ? AND status = ? AND id IN (` + strings.Join(ids, ",") + `)`
	args = append(args, tripID, model.SeatAvailable)
	for _, cl := range claims {
		args = append(args, cl.SeatID)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(claims)) {
		return fmt.Errorf("claim flipped %d of %d seats", n, len(claims))
	}
	return nil
}
