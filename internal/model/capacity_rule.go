package model

import "time"

// CapacityRule limits how many groups or people may book inside a local
// time range at a store.  A rule applies on a single date, a date range, a
// recurring weekday, or always (all applicability fields nil).  Limit
// fields are nullable; nil means unrestricted for that dimension.  Rules
// are created and replaced by staff and are read-only to the reservation
// engine.
type CapacityRule struct {
	ID          uint64    // capacity_rules.id
	StoreID     string    // capacity_rules.store_id
	Date        *string   // capacity_rules.date (YYYY-MM-DD, nullable)
	StartDate   *string   // capacity_rules.start_date (nullable)
	EndDate     *string   // capacity_rules.end_date (nullable)
	Weekday     *int      // capacity_rules.weekday (0=Sunday..6, nullable)
	StartTime   string    // capacity_rules.start_time (local HH:MM)
	EndTime     string    // capacity_rules.end_time (local HH:MM)
	MaxGroups   *int      // capacity_rules.max_groups (nullable)
	MaxPeople   *int      // capacity_rules.max_people (nullable)
	MaxPerGroup *int      // capacity_rules.max_per_group (nullable)
	SeatID      *string   // capacity_rules.seat_id (nullable)
	CreatedAt   time.Time // capacity_rules.created_at
}

// Unrestricted reports whether the rule carries no limits at all.  Such a
// rule is treated identically to no rule.
func (r *CapacityRule) Unrestricted() bool {
	return r.MaxGroups == nil && r.MaxPeople == nil && r.MaxPerGroup == nil
}

// AppliesOn reports whether the rule governs the given local calendar date.
// date must be formatted YYYY-MM-DD and weekday must be the weekday of that
// date.  A rule with no applicability fields set applies to every date.
func (r *CapacityRule) AppliesOn(date string, weekday time.Weekday) bool {
	if r.Date != nil {
		return *r.Date == date
	}
	if r.StartDate != nil || r.EndDate != nil {
		if r.StartDate != nil && date < *r.StartDate {
			return false
		}
		if r.EndDate != nil && date > *r.EndDate {
			return false
		}
		return true
	}
	if r.Weekday != nil {
		return *r.Weekday == int(weekday)
	}
	return true
}
