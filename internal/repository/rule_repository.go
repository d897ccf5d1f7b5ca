package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tsukue/slotbook/internal/model"
)

// RuleRepo provides read access to capacity rules plus the staff
// replace-per-date write path.  The reservation engine itself only reads
// rules; replacement is delete-then-insert inside one transaction so a
// date never shows a partial rule set.
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo returns a RuleRepo bound to the given database.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *RuleRepo) DB() *sql.DB { return r.db }

const ruleColumns = `id, store_id, date, start_date, end_date, weekday,
       start_time, end_time, max_groups, max_people, max_per_group, seat_id, created_at`

// ListForStoreDate returns the rules governing one local calendar date for
// a store, in stored order.  Stored order is significant: the resolver
// applies first-match semantics when ranges overlap.  The query narrows by
// applicability (exact date, containing date range, matching weekday, or
// always-on); AppliesOn re-checks each row in memory so the applicability
// precedence (date over range over weekday) holds for rows the OR
// over-selects.
func (r *RuleRepo) ListForStoreDate(ctx context.Context, storeID, date string, weekday time.Weekday) ([]model.CapacityRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM capacity_rules
	           WHERE store_id = ?
	             AND (date = ?
	                  OR (start_date IS NOT NULL AND start_date <= ? AND (end_date IS NULL OR end_date >= ?))
	                  OR weekday = ?
	                  OR (date IS NULL AND start_date IS NULL AND end_date IS NULL AND weekday IS NULL))
	           ORDER BY id`
	rules, err := r.list(ctx, q, storeID, date, date, date, int(weekday))
	if err != nil {
		return nil, err
	}
	out := rules[:0]
	for _, rule := range rules {
		if rule.AppliesOn(date, weekday) {
			out = append(out, rule)
		}
	}
	return out, nil
}

// ListByStore returns every rule of a store in stored order.  Handlers
// filter by applicability when expanding rules over a display date range.
func (r *RuleRepo) ListByStore(ctx context.Context, storeID string) ([]model.CapacityRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM capacity_rules WHERE store_id = ? ORDER BY id`
	return r.list(ctx, q, storeID)
}

// ReplaceForDate atomically replaces all single-date rules of a store for
// one date with the provided set.  Recurring (weekday / date-range /
// always-on) rules are left untouched.  Each inserted rule gets the target
// date regardless of what the caller set on it.
func (r *RuleRepo) ReplaceForDate(ctx context.Context, storeID, date string, rules []model.CapacityRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM capacity_rules WHERE store_id = ? AND date = ?`, storeID, date); err != nil {
		return err
	}
	const ins = `INSERT INTO capacity_rules
	             (store_id, date, start_time, end_time, max_groups, max_people, max_per_group, seat_id)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range rules {
		rule := &rules[i]
		if _, err := tx.ExecContext(ctx, ins,
			storeID, date, rule.StartTime, rule.EndTime,
			rule.MaxGroups, rule.MaxPeople, rule.MaxPerGroup, rule.SeatID,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *RuleRepo) list(ctx context.Context, query string, args ...any) ([]model.CapacityRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CapacityRule, 0)
	for rows.Next() {
		var (
			rule      model.CapacityRule
			date      sql.NullString
			startDate sql.NullString
			endDate   sql.NullString
			weekday   sql.NullInt64
			maxGroups sql.NullInt64
			maxPeople sql.NullInt64
			maxPerGrp sql.NullInt64
			seatID    sql.NullString
		)
		if err := rows.Scan(
			&rule.ID, &rule.StoreID, &date, &startDate, &endDate, &weekday,
			&rule.StartTime, &rule.EndTime, &maxGroups, &maxPeople, &maxPerGrp,
			&seatID, &rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			v := date.String
			rule.Date = &v
		}
		if startDate.Valid {
			v := startDate.String
			rule.StartDate = &v
		}
		if endDate.Valid {
			v := endDate.String
			rule.EndDate = &v
		}
		if weekday.Valid {
			v := int(weekday.Int64)
			rule.Weekday = &v
		}
		if maxGroups.Valid {
			v := int(maxGroups.Int64)
			rule.MaxGroups = &v
		}
		if maxPeople.Valid {
			v := int(maxPeople.Int64)
			rule.MaxPeople = &v
		}
		if maxPerGrp.Valid {
			v := int(maxPerGrp.Int64)
			rule.MaxPerGroup = &v
		}
		if seatID.Valid {
			v := seatID.String
			rule.SeatID = &v
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
