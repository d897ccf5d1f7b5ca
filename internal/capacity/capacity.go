// Package capacity resolves which stored rule governs a time of day and
// aggregates current utilization against it.  Rules constrain their whole
// local time range jointly, not each slot independently, so aggregation is
// range-scoped: a rule covering 18:00-21:00 with max_groups=1 is consumed
// by a single reservation anywhere in that window.
package capacity

import (
	"github.com/tsukue/slotbook/internal/model"
)

// Limit carries the resolved limits for a time of day.  A nil field means
// unrestricted for that dimension.
type Limit struct {
	MaxGroups   *int
	MaxPeople   *int
	MaxPerGroup *int
}

// Utilization sums existing non-cancelled reservations inside one rule's
// range.
type Utilization struct {
	Groups int
	People int
}

// inRange reports whether timeOfDay falls inside [start, end].  Both
// bounds are inclusive, matching the stored-rule semantics; HH:MM strings
// compare correctly as plain strings.
func inRange(timeOfDay, start, end string) bool {
	return start <= timeOfDay && timeOfDay <= end
}

// ResolveRule returns the first rule in stored order whose range contains
// timeOfDay, or nil when no rule matches.  Rules carrying no limits are
// skipped, making them identical to no rule.  First-match order is a
// documented tie-break for overlapping ranges, not an error condition.
func ResolveRule(timeOfDay string, rules []model.CapacityRule) *model.CapacityRule {
	for i := range rules {
		r := &rules[i]
		if r.Unrestricted() {
			continue
		}
		if inRange(timeOfDay, r.StartTime, r.EndTime) {
			return r
		}
	}
	return nil
}

// ResolveLimit resolves the limits governing timeOfDay.  It returns nil
// when no rule matches, meaning the time is unrestricted.
func ResolveLimit(timeOfDay string, rules []model.CapacityRule) *Limit {
	r := ResolveRule(timeOfDay, rules)
	if r == nil {
		return nil
	}
	return &Limit{MaxGroups: r.MaxGroups, MaxPeople: r.MaxPeople, MaxPerGroup: r.MaxPerGroup}
}

// RangeKey identifies a rule's controlled range within an aggregation
// result.
func RangeKey(r *model.CapacityRule) string {
	return r.StartTime + "-" + r.EndTime
}

// countsToward reports whether a reservation consumes capacity from the
// rule: it must be non-cancelled, fall inside the rule's local time range,
// and match the rule's seat scope when one is set.
func countsToward(r *model.CapacityRule, res *model.Reservation) bool {
	if res.Cancelled() {
		return false
	}
	if !inRange(res.Time, r.StartTime, r.EndTime) {
		return false
	}
	if r.SeatID != nil {
		if res.SeatID == nil || *res.SeatID != *r.SeatID {
			return false
		}
	}
	return true
}

// AggregateUtilization computes, for each rule's full range, the group
// count and people total of the given reservations.  Callers pass the
// reservations of one store and local date; cancelled rows never count.
// Times not covered by any rule are implicitly unrestricted and absent
// from the result.
func AggregateUtilization(rules []model.CapacityRule, reservations []model.Reservation) map[string]Utilization {
	out := make(map[string]Utilization, len(rules))
	for i := range rules {
		rule := &rules[i]
		if rule.Unrestricted() {
			continue
		}
		var u Utilization
		for j := range reservations {
			if countsToward(rule, &reservations[j]) {
				u.Groups++
				u.People += reservations[j].People
			}
		}
		out[RangeKey(rule)] = u
	}
	return out
}
