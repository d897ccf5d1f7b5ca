// Package repository implements data access over MySQL.  This file defines
// sentinel errors shared across repositories and the classification of
// MySQL uniqueness violations into domain-level outcomes.  The insert path
// never guesses: conflicts are determined from the database error after the
// write is attempted, which is the engine's only hard concurrency
// guarantee.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicateIdempotencyKey is returned when an insert collides on the
// (store_id, idempotency_key) unique index.  The request is a replay:
// handlers re-fetch the existing row and respond 200 with duplicate:true.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

// ErrSlotTaken is returned when an insert collides on the
// (store_id, slot_start_utc, seat_id) unique index: another non-cancelled
// reservation already occupies the slot.  Handlers respond 409 slot_taken.
var ErrSlotTaken = errors.New("slot taken")

// ErrConstraintViolation is returned for any other uniqueness violation.
// Handlers respond 409 constraint_violation.
var ErrConstraintViolation = errors.New("constraint violation")

// ErrAlreadyCancelled is returned when cancelling a reservation that is
// already in the terminal cancelled state.
var ErrAlreadyCancelled = errors.New("already cancelled")

// Names of the unique indexes on the reservations table.  MySQL includes
// the violated key name in its 1062 message.
const (
	idxStoreIdem     = "uq_reservations_store_idem"
	idxStoreSlotSeat = "uq_reservations_store_slot_seat"
)

// classifyInsertErr maps a MySQL duplicate-entry error (code 1062) to the
// sentinel matching the violated index.  Non-1062 errors pass through
// unchanged.
func classifyInsertErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "1062") {
		return err
	}
	switch {
	case strings.Contains(msg, idxStoreIdem):
		return ErrDuplicateIdempotencyKey
	case strings.Contains(msg, idxStoreSlotSeat):
		return ErrSlotTaken
	default:
		return ErrConstraintViolation
	}
}
