package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tsukue/slotbook/internal/calendar"
	"github.com/tsukue/slotbook/internal/model"
	"github.com/tsukue/slotbook/internal/repository"
)

// Maximum number of days a single constraint listing may span.  Recurring
// rules expand to one background event per applicable day, so an unbounded
// range would let one request fan out arbitrarily.
const maxConstraintRangeDays = 62

// ConstraintHandler serves capacity-rule endpoints: the public read-side
// projection consumed by the web calendar, and the staff-only
// replace-per-date write path.
type ConstraintHandler struct {
	Rules *repository.RuleRepo
	Loc   *time.Location
}

// NewConstraintHandler constructs a ConstraintHandler.
func NewConstraintHandler(rules *repository.RuleRepo, loc *time.Location) *ConstraintHandler {
	if rules == nil {
		panic("nil repository passed to NewConstraintHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ConstraintHandler{Rules: rules, Loc: loc}
}

// List handles GET /v1/constraints?storeId&start&end.  Every rule
// applicable to a date inside [start, end] produces one background event
// for that date: single-date rules yield at most one event, recurring
// weekday and date-range rules yield one per covered day.
func (h *ConstraintHandler) List(c echo.Context) error {
	storeID := strings.TrimSpace(c.QueryParam("storeId"))
	if storeID == "" {
		storeID = strings.TrimSpace(c.QueryParam("store_id"))
	}
	startRaw := strings.TrimSpace(c.QueryParam("start"))
	endRaw := strings.TrimSpace(c.QueryParam("end"))
	if storeID == "" || startRaw == "" || endRaw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	start, err := time.ParseInLocation("2006-01-02", dateOnly(startRaw), h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	end, err := time.ParseInLocation("2006-01-02", dateOnly(endRaw), h.Loc)
	if err != nil || end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	if int(end.Sub(start).Hours()/24) > maxConstraintRangeDays {
		end = start.AddDate(0, 0, maxConstraintRangeDays)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rules, err := h.Rules.ListByStore(ctx, storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}

	events := make([]calendar.Event, 0, len(rules))
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		weekday := day.Weekday()
		for i := range rules {
			rule := &rules[i]
			if !rule.AppliesOn(date, weekday) {
				continue
			}
			ev, err := calendar.FromRule(rule, date, h.Loc)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
			}
			events = append(events, ev)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"constraints": events,
	})
}

type constraintSpec struct {
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	MaxGroups   *int    `json:"maxGroups"`
	MaxPeople   *int    `json:"maxPeople"`
	MaxPerGroup *int    `json:"maxPerGroup"`
	SeatID      *string `json:"seatId"`
}

type replaceConstraintsReq struct {
	Date        string           `json:"date"`
	Constraints []constraintSpec `json:"constraints"`
}

// Replace handles PUT /v1/stores/:storeId/constraints.  Staff replace the
// whole single-date rule set for one date in a single transaction
// (delete-then-insert), so readers never observe a partial set.  An empty
// constraints array clears the date.
func (h *ConstraintHandler) Replace(c echo.Context) error {
	storeID := strings.TrimSpace(c.Param("storeId"))
	if storeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	var req replaceConstraintsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	rules := make([]model.CapacityRule, 0, len(req.Constraints))
	for _, spec := range req.Constraints {
		if !validHHMM(spec.StartTime) || !validHHMM(spec.EndTime) || spec.EndTime < spec.StartTime {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
		}
		rules = append(rules, model.CapacityRule{
			StoreID:     storeID,
			StartTime:   spec.StartTime,
			EndTime:     spec.EndTime,
			MaxGroups:   spec.MaxGroups,
			MaxPeople:   spec.MaxPeople,
			MaxPerGroup: spec.MaxPerGroup,
			SeatID:      spec.SeatID,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rules.ReplaceForDate(ctx, storeID, req.Date, rules); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"date":     req.Date,
		"replaced": len(rules),
	})
}

// dateOnly strips a time component from an RFC3339-ish bound so the
// constraint range is always handled at day granularity.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func validHHMM(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
