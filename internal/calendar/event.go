// Package calendar projects stored reservations and capacity rules into
// the generic timed-event shape consumed by every external interface (web
// calendar, chat bot replies, admin views).  Formatting is pure and does
// no I/O.
package calendar

import (
	"fmt"
	"time"

	"github.com/tsukue/slotbook/internal/model"
)

// Event is the wire representation of a calendar entry.  Reservations
// become foreground events ("booking-<id>"); capacity rules become
// background events ("constraint-<id>") rendered behind bookings.
type Event struct {
	ID            string         `json:"id"`
	Title         string         `json:"title,omitempty"`
	Start         string         `json:"start"`
	End           string         `json:"end"`
	AllDay        bool           `json:"allDay"`
	Status        string         `json:"status,omitempty"`
	Display       string         `json:"display,omitempty"`
	ExtendedProps map[string]any `json:"extendedProps"`
}

// FromReservation formats a reservation row as a calendar event.  Slot
// bounds render as RFC3339 UTC strings so a created reservation reads back
// byte-identical through the list endpoint.
func FromReservation(r *model.Reservation) Event {
	props := map[string]any{
		"storeId": r.StoreID,
		"name":    r.Name,
		"phone":   r.Phone,
		"people":  r.People,
		"date":    r.Date,
		"time":    r.Time,
	}
	if r.SeatID != nil {
		props["seatId"] = *r.SeatID
	}
	if r.Message != nil {
		props["message"] = *r.Message
	}
	return Event{
		ID:            fmt.Sprintf("booking-%d", r.ID),
		Title:         fmt.Sprintf("%s (%d)", r.Name, r.People),
		Start:         r.SlotStartUTC.UTC().Format(time.RFC3339),
		End:           r.SlotEndUTC.UTC().Format(time.RFC3339),
		AllDay:        false,
		Status:        r.Status,
		ExtendedProps: props,
	}
}

// FromRule formats a capacity rule as a background event for one local
// calendar date.  The rule's HH:MM bounds are resolved against the store
// timezone and rendered in UTC.  Rules recurring by weekday or date range
// produce one event per applicable date, so callers pass each date in
// turn.
func FromRule(r *model.CapacityRule, date string, loc *time.Location) (Event, error) {
	start, err := localDateTime(date, r.StartTime, loc)
	if err != nil {
		return Event{}, err
	}
	end, err := localDateTime(date, r.EndTime, loc)
	if err != nil {
		return Event{}, err
	}
	props := map[string]any{
		"storeId":   r.StoreID,
		"date":      date,
		"startTime": r.StartTime,
		"endTime":   r.EndTime,
	}
	if r.MaxGroups != nil {
		props["maxGroups"] = *r.MaxGroups
	}
	if r.MaxPeople != nil {
		props["maxPeople"] = *r.MaxPeople
	}
	if r.MaxPerGroup != nil {
		props["maxPerGroup"] = *r.MaxPerGroup
	}
	if r.SeatID != nil {
		props["seatId"] = *r.SeatID
	}
	return Event{
		ID:            fmt.Sprintf("constraint-%d", r.ID),
		Start:         start.UTC().Format(time.RFC3339),
		End:           end.UTC().Format(time.RFC3339),
		AllDay:        false,
		Display:       "background",
		ExtendedProps: props,
	}, nil
}

func localDateTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, loc)
}
