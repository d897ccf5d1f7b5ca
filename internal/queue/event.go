// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published after a reservation row is committed.
// It carries enough detail for downstream consumers (notification log, shop
// tablets, analytics) to act without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	StoreID       string `json:"store_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	People        int    `json:"people"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	SlotStart     string `json:"slot_start"`
	SlotEnd       string `json:"slot_end"`
	CreatedAt     string `json:"created_at"`
}
