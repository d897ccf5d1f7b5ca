package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukue/slotbook/internal/model"
)

func TestFromReservation(t *testing.T) {
	seat := "terrace-1"
	msg := "window seat please"
	r := &model.Reservation{
		ID:           42,
		StoreID:      "store-1",
		SlotStartUTC: time.Date(2025, 9, 4, 12, 30, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2025, 9, 4, 13, 0, 0, 0, time.UTC),
		Date:         "2025-09-04",
		Time:         "21:30",
		Name:         "Tanaka",
		Phone:        "090-0000-0000",
		People:       4,
		SeatID:       &seat,
		Message:      &msg,
		Status:       model.StatusConfirmed,
	}
	ev := FromReservation(r)
	assert.Equal(t, "booking-42", ev.ID)
	assert.Equal(t, "Tanaka (4)", ev.Title)
	assert.Equal(t, "2025-09-04T12:30:00Z", ev.Start)
	assert.Equal(t, "2025-09-04T13:00:00Z", ev.End)
	assert.False(t, ev.AllDay)
	assert.Equal(t, model.StatusConfirmed, ev.Status)
	assert.Equal(t, "terrace-1", ev.ExtendedProps["seatId"])
	assert.Equal(t, "window seat please", ev.ExtendedProps["message"])
	assert.Equal(t, 4, ev.ExtendedProps["people"])
}

func TestFromRule(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	maxGroups := 1
	rule := &model.CapacityRule{
		ID:        7,
		StoreID:   "store-1",
		StartTime: "18:00",
		EndTime:   "21:00",
		MaxGroups: &maxGroups,
	}
	ev, err := FromRule(rule, "2025-09-04", jst)
	require.NoError(t, err)
	assert.Equal(t, "constraint-7", ev.ID)
	assert.Equal(t, "background", ev.Display)
	// 18:00 JST on 2025-09-04 is 09:00 UTC.
	assert.Equal(t, "2025-09-04T09:00:00Z", ev.Start)
	assert.Equal(t, "2025-09-04T12:00:00Z", ev.End)
	assert.Equal(t, 1, ev.ExtendedProps["maxGroups"])
}

func TestFromRuleBadDate(t *testing.T) {
	rule := &model.CapacityRule{StartTime: "18:00", EndTime: "21:00"}
	_, err := FromRule(rule, "not-a-date", time.UTC)
	assert.Error(t, err)
}
