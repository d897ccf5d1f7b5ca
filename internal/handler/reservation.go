package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tsukue/slotbook/internal/calendar"
	"github.com/tsukue/slotbook/internal/capacity"
	"github.com/tsukue/slotbook/internal/config"
	"github.com/tsukue/slotbook/internal/model"
	"github.com/tsukue/slotbook/internal/queue"
	"github.com/tsukue/slotbook/internal/repository"
	"github.com/tsukue/slotbook/internal/timeslot"
)

// Notifier publishes a reservation-created event to the outbound
// notification pipeline.  Publishing is fire-and-forget: a failure never
// affects the reservation write path.
type Notifier func(ctx context.Context, ev queue.ReservationCreatedEvent) error

// ReservationHandler serves the public reservation API.  Each request is
// handled statelessly; the engine holds no mutable state beyond the
// database, and concurrency correctness is delegated to the unique
// indexes on the reservations table.
type ReservationHandler struct {
	Cfg          config.Config
	Reservations *repository.ReservationRepo
	Rules        *repository.RuleRepo
	Loc          *time.Location
	Notify       Notifier // optional
}

// NewReservationHandler constructs a ReservationHandler.  loc is the store
// timezone used to mirror UTC slots into the legacy local date/time
// columns.
func NewReservationHandler(cfg config.Config, res *repository.ReservationRepo, rules *repository.RuleRepo, loc *time.Location, notify Notifier) *ReservationHandler {
	if res == nil || rules == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationHandler{Cfg: cfg, Reservations: res, Rules: rules, Loc: loc, Notify: notify}
}

// Create handles POST /v1/reservations.  The request moves through
// validation, slot normalization, an advisory capacity check, and a single
// insert whose uniqueness violations decide the final outcome:
//
//	201                 row inserted
//	200 duplicate:true  idempotency key replay; the existing row is returned
//	409 slot_taken      slot uniqueness violated, or a 1-group cap is full
//	409 capacity_exceeded / constraint_violation
//	500 database_error
//
// The capacity check is advisory only: it reads aggregated counts in a
// separate round trip from the insert, so two concurrent requests can both
// pass it.  The unique indexes are the only hard guarantee.
func (h *ReservationHandler) Create(c echo.Context) error {
	body, err := decodeAliased(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	storeID := body.str("storeId")
	name := body.str("name")
	phone := body.str("phone")
	if storeID == "" || name == "" || phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	people, ok := body.integer("people")
	if !ok || people < 1 || people > 20 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	startAt, ok := h.resolveStart(body)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	slotStart := timeslot.FloorToSlot(startAt, h.Cfg.SlotMinutes)
	slotEnd := timeslot.SlotEnd(slotStart, h.Cfg.SlotMinutes)
	local := slotStart.In(h.Loc)
	localDate := local.Format("2006-01-02")
	localTime := local.Format("15:04")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rules, err := h.Rules.ListForStoreDate(ctx, storeID, localDate, local.Weekday())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	if rule := capacity.ResolveRule(localTime, rules); rule != nil {
		if rule.MaxPerGroup != nil && people > *rule.MaxPerGroup {
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_exceeded"})
		}
		existing, err := h.Reservations.ListActiveByStoreDate(ctx, storeID, localDate)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
		}
		util := capacity.AggregateUtilization([]model.CapacityRule{*rule}, existing)[capacity.RangeKey(rule)]
		if rule.MaxGroups != nil && util.Groups+1 > *rule.MaxGroups {
			// A 1-group cap reads as an occupied slot to the caller.
			if *rule.MaxGroups == 1 {
				return c.JSON(http.StatusConflict, echo.Map{"error": "slot_taken"})
			}
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_exceeded"})
		}
		if rule.MaxPeople != nil && util.People+people > *rule.MaxPeople {
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_exceeded"})
		}
	}

	idemKey := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if idemKey == "" {
		idemKey = uuid.NewString()
	}

	res := &model.Reservation{
		StoreID:        storeID,
		SlotStartUTC:   slotStart,
		SlotEndUTC:     slotEnd,
		Date:           localDate,
		Time:           localTime,
		Name:           name,
		Phone:          phone,
		People:         people,
		Status:         model.StatusConfirmed,
		IdempotencyKey: idemKey,
	}
	if seat := body.str("seatId"); seat != "" {
		res.SeatID = &seat
	}
	if msg := body.str("message"); msg != "" {
		res.Message = &msg
	}

	switch err := h.Reservations.Create(ctx, res); {
	case err == nil:
		// inserted
	case errors.Is(err, repository.ErrDuplicateIdempotencyKey):
		prev, err := h.Reservations.GetByIdempotencyKey(ctx, storeID, idemKey)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success":     true,
			"duplicate":   true,
			"reservation": calendar.FromReservation(prev),
		})
	case errors.Is(err, repository.ErrSlotTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot_taken"})
	case errors.Is(err, repository.ErrConstraintViolation):
		return c.JSON(http.StatusConflict, echo.Map{"error": "constraint_violation"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}

	h.publishCreated(res)

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"reservation": calendar.FromReservation(res),
	})
}

// List handles GET /v1/reservations?storeId&start&end.  It returns
// non-cancelled reservations ordered by slot start ascending.
func (h *ReservationHandler) List(c echo.Context) error {
	storeID := strings.TrimSpace(c.QueryParam("storeId"))
	if storeID == "" {
		storeID = strings.TrimSpace(c.QueryParam("store_id"))
	}
	if storeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	start, end, ok := h.parseRange(c.QueryParam("start"), c.QueryParam("end"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reservations, err := h.Reservations.ListByStoreRange(ctx, storeID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	events := make([]calendar.Event, 0, len(reservations))
	for i := range reservations {
		events = append(events, calendar.FromReservation(&reservations[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": events,
	})
}

// Cancel handles DELETE /v1/reservations/:id.  Cancellation is terminal
// and frees the slot for subsequent requests.  When same-day cancellation
// is disabled by policy, requests for a reservation on today's local date
// are rejected with 409.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	if !h.Cfg.SameDayCancel && res.Date == time.Now().In(h.Loc).Format("2006-01-02") {
		return c.JSON(http.StatusConflict, echo.Map{"error": "same_day_cancel_disabled"})
	}

	switch err := h.Reservations.Cancel(ctx, id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.NoContent(http.StatusNoContent) // cancelling twice is a no-op
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
}

// resolveStart produces the requested absolute instant from either an
// ISO-8601 startAt carrying an offset, or a date plus free-form time of
// day interpreted in the store timezone.
func (h *ReservationHandler) resolveStart(body aliasedBody) (time.Time, bool) {
	if s := body.str("startAt"); s != "" {
		t, err := timeslot.ParseInstant(s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	date := body.str("date")
	rawTime := body.str("time")
	if date == "" || rawTime == "" {
		return time.Time{}, false
	}
	hhmm, ok := timeslot.NormalizeTimeOfDay(rawTime)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, h.Loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// parseRange parses start/end query bounds, accepting RFC3339 instants or
// bare local dates.  A bare end date is exclusive at the following
// midnight so "?start=2025-09-01&end=2025-09-08" covers the whole week.
func (h *ReservationHandler) parseRange(startRaw, endRaw string) (time.Time, time.Time, bool) {
	start, ok := h.parseBound(startRaw, false)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := h.parseBound(endRaw, true)
	if !ok || !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *ReservationHandler) parseBound(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := timeslot.ParseInstant(raw); err == nil {
		return t, true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, h.Loc)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1)
	}
	return d.UTC(), true
}

// publishCreated hands the reservation to the notification pipeline in the
// background.  Delivery is not awaited and a failure never rolls back the
// persisted reservation; the publisher applies its own bounded retries.
func (h *ReservationHandler) publishCreated(res *model.Reservation) {
	if h.Notify == nil {
		return
	}
	ev := queue.ReservationCreatedEvent{
		ReservationID: res.ID,
		StoreID:       res.StoreID,
		Name:          res.Name,
		Phone:         res.Phone,
		People:        res.People,
		Date:          res.Date,
		Time:          res.Time,
		SlotStart:     res.SlotStartUTC.Format(time.RFC3339),
		SlotEnd:       res.SlotEndUTC.Format(time.RFC3339),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Notify(ctx, ev); err != nil {
			log.Printf("notify: publish reservation %d failed: %v", ev.ReservationID, err)
		}
	}()
}
