package model

import "time"

// Reservation statuses.  cancelled is terminal; there is no transition out
// of it.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Reservation records one group's booking of a time slot at a store.  Slot
// bounds are stored in UTC; the Date and Time columns mirror the slot in
// the store's local timezone for backward-compatible display.
//
// Two unique constraints back the engine's concurrency guarantees:
//
//	uq_reservations_store_idem      (store_id, idempotency_key)
//	uq_reservations_store_slot_seat (store_id, slot_start_utc, seat_id, active)
//
// active is a generated column that is NULL for cancelled rows, so a
// cancelled reservation frees its slot.
type Reservation struct {
	ID             uint64     // reservations.id
	StoreID        string     // reservations.store_id
	SlotStartUTC   time.Time  // reservations.slot_start_utc
	SlotEndUTC     time.Time  // reservations.slot_end_utc
	Date           string     // reservations.date (local calendar date, YYYY-MM-DD)
	Time           string     // reservations.time (local HH:MM)
	Name           string     // reservations.name
	Phone          string     // reservations.phone
	People         int        // reservations.people (1-20)
	SeatID         *string    // reservations.seat_id (nullable)
	Status         string     // reservations.status (pending/confirmed/cancelled)
	Message        *string    // reservations.message (nullable)
	IdempotencyKey string     // reservations.idempotency_key
	CreatedAt      time.Time  // reservations.created_at
	CancelledAt    *time.Time // reservations.cancelled_at (nullable)
	ModifiedAt     time.Time  // reservations.modified_at
}

// Cancelled reports whether the reservation is in the terminal state.
func (r *Reservation) Cancelled() bool { return r.Status == StatusCancelled }
