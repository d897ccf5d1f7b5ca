package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tsukue/slotbook/internal/model"
)

// ReservationRepo provides persistence for reservations.  All timestamps
// are stored in UTC (the DSN uses loc=UTC and parseTime=true).  Creation
// is a single insert guarded by the unique indexes described in
// errors.go; there is no row locking anywhere in this repository.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, store_id, slot_start_utc, slot_end_utc, date, time,
       name, phone, people, seat_id, status, message, idempotency_key,
       created_at, cancelled_at, modified_at`

// Create inserts a reservation row and populates the generated ID and
// timestamps on the provided record.  Uniqueness violations are classified
// into ErrDuplicateIdempotencyKey, ErrSlotTaken or ErrConstraintViolation;
// any other database error is returned as-is.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (store_id, slot_start_utc, slot_end_utc, date, time, name, phone,
	            people, seat_id, status, message, idempotency_key)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.StoreID, res.SlotStartUTC.UTC(), res.SlotEndUTC.UTC(), res.Date, res.Time,
		res.Name, res.Phone, res.People, res.SeatID, res.Status, res.Message,
		res.IdempotencyKey,
	)
	if err != nil {
		return classifyInsertErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate database-assigned timestamps.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID)
	return scanReservation(row, res)
}

// GetByIdempotencyKey fetches the reservation previously created for the
// given (store, key) pair.  It is used to answer idempotent replays after
// an insert collides on the idempotency index.  Returns ErrNotFound when
// no such row exists.
func (r *ReservationRepo) GetByIdempotencyKey(ctx context.Context, storeID, key string) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE store_id = ? AND idempotency_key = ? LIMIT 1`, storeID, key)
	var res model.Reservation
	if err := scanReservation(row, &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetByID fetches a single reservation.  Returns ErrNotFound when the row
// does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? LIMIT 1`, id)
	var res model.Reservation
	if err := scanReservation(row, &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListActiveByStoreDate returns all non-cancelled reservations for a store
// on one local calendar date, ordered by local time.  This is the input to
// range-scoped capacity aggregation, which compares the legacy local time
// column against rule HH:MM bounds.
func (r *ReservationRepo) ListActiveByStoreDate(ctx context.Context, storeID, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE store_id = ? AND date = ? AND status <> 'cancelled'
	           ORDER BY time, id`
	return r.list(ctx, q, storeID, date)
}

// ListByStoreRange returns non-cancelled reservations whose slot start
// falls in [start, end), ordered by slot_start_utc ascending.
func (r *ReservationRepo) ListByStoreRange(ctx context.Context, storeID string, start, end time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE store_id = ? AND slot_start_utc >= ? AND slot_start_utc < ?
	             AND status <> 'cancelled'
	           ORDER BY slot_start_utc, id`
	return r.list(ctx, q, storeID, start.UTC(), end.UTC())
}

// Cancel transitions a reservation to the terminal cancelled state and
// records cancelled_at.  The WHERE clause excludes already-cancelled rows,
// so cancellation is decided by rows-affected: ErrAlreadyCancelled when
// the row exists but was cancelled before, ErrNotFound when it never
// existed.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE reservations
	           SET status = 'cancelled', cancelled_at = UTC_TIMESTAMP(), modified_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status <> 'cancelled'`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadyCancelled
		}
		return ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner, res *model.Reservation) error {
	var (
		seatID      sql.NullString
		message     sql.NullString
		cancelledAt sql.NullTime
	)
	err := row.Scan(
		&res.ID, &res.StoreID, &res.SlotStartUTC, &res.SlotEndUTC, &res.Date, &res.Time,
		&res.Name, &res.Phone, &res.People, &seatID, &res.Status, &message,
		&res.IdempotencyKey, &res.CreatedAt, &cancelledAt, &res.ModifiedAt,
	)
	if err != nil {
		return err
	}
	res.SlotStartUTC = res.SlotStartUTC.UTC()
	res.SlotEndUTC = res.SlotEndUTC.UTC()
	if seatID.Valid {
		s := seatID.String
		res.SeatID = &s
	}
	if message.Valid {
		m := message.String
		res.Message = &m
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		res.CancelledAt = &t
	}
	return nil
}
