package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukue/slotbook/internal/config"
	"github.com/tsukue/slotbook/internal/model"
	"github.com/tsukue/slotbook/internal/repository"
)

var jst = time.FixedZone("JST", 9*60*60)

var reservationCols = []string{
	"id", "store_id", "slot_start_utc", "slot_end_utc", "date", "time",
	"name", "phone", "people", "seat_id", "status", "message", "idempotency_key",
	"created_at", "cancelled_at", "modified_at",
}

var ruleCols = []string{
	"id", "store_id", "date", "start_date", "end_date", "weekday",
	"start_time", "end_time", "max_groups", "max_people", "max_per_group", "seat_id", "created_at",
}

func reservationRow(mock sqlmock.Sqlmock, id uint64, date, hhmm string, people int) *sqlmock.Rows {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	return mock.NewRows(reservationCols).AddRow(
		id, "store-1",
		time.Date(2025, 9, 4, 12, 30, 0, 0, time.UTC),
		time.Date(2025, 9, 4, 13, 0, 0, 0, time.UTC),
		date, hhmm, "Tanaka", "090-0000-0000", people,
		nil, model.StatusConfirmed, nil, "key-1", now, nil, now,
	)
}

func newTestHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cfg := config.Config{SlotMinutes: 30, StoreTZ: "Asia/Tokyo"}
	h := NewReservationHandler(cfg,
		repository.NewReservationRepo(db), repository.NewRuleRepo(db), jst, nil)
	return h, mock, func() { db.Close() }
}

func doCreate(h *ReservationHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	_ = h.Create(e.NewContext(req, rec))
	return rec
}

func TestCreateRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"not json", `people=4`},
		{"missing store", `{"name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":4}`},
		{"missing name", `{"storeId":"store-1","phone":"090","date":"2025-09-04","time":"19:00","people":4}`},
		{"missing phone", `{"storeId":"store-1","name":"Tanaka","date":"2025-09-04","time":"19:00","people":4}`},
		{"people zero", `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":0}`},
		{"people too large", `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":21}`},
		{"people fractional", `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":4.5}`},
		{"people garbage", `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":"abc"}`},
		{"unparseable time", `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"夜","people":4}`},
		{"no start at all", `{"storeId":"store-1","name":"Tanaka","phone":"090","people":4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, closeDB := newTestHandler(t)
			defer closeDB()

			rec := doCreate(h, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "missing_fields")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateNormalizesAndInserts(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	// No rules on the date: the advisory capacity check is skipped entirely.
	mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
		WillReturnRows(mock.NewRows(ruleCols))
	// 21時半 JST floors to the 12:30 UTC half-hour slot.
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs("store-1",
			time.Date(2025, 9, 4, 12, 30, 0, 0, time.UTC),
			time.Date(2025, 9, 4, 13, 0, 0, 0, time.UTC),
			"2025-09-04", "21:30", "Tanaka", "090-0000-0000", 4,
			nil, model.StatusConfirmed, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(reservationRow(mock, 7, "2025-09-04", "21:30", 4))

	body := `{"store_id":"store-1","name":"Tanaka","tel":"090-0000-0000","date":"2025-09-04","time":"21時半","people":"4"}`
	rec := doCreate(h, body, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"booking-7"`)
	assert.Contains(t, rec.Body.String(), "2025-09-04T12:30:00Z")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReplaysIdempotencyKey(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
		WillReturnRows(mock.NewRows(ruleCols))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'store-1-key-1' for key 'reservations.uq_reservations_store_idem'"))
	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs("store-1", "key-1").
		WillReturnRows(reservationRow(mock, 7, "2025-09-04", "21:30", 4))

	body := `{"storeId":"store-1","name":"Tanaka","phone":"090-0000-0000","date":"2025-09-04","time":"21:30","people":4}`
	rec := doCreate(h, body, map[string]string{"Idempotency-Key": "key-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate":true`)
	assert.Contains(t, rec.Body.String(), `"booking-7"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSlotTakenByIndex(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
		WillReturnRows(mock.NewRows(ruleCols))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry for key 'reservations.uq_reservations_store_slot_seat'"))

	body := `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":2}`
	rec := doCreate(h, body, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot_taken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMaxPerGroupRejectsEarly(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	// Always-on rule capping groups at 4 people; no reservations are read.
	mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
		WillReturnRows(mock.NewRows(ruleCols).AddRow(
			1, "store-1", nil, nil, nil, nil,
			"00:00", "23:59", nil, nil, 4, nil,
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))

	body := `{"storeId":"store-1","name":"Tanaka","phone":"090","date":"2025-09-04","time":"19:00","people":5}`
	rec := doCreate(h, body, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity_exceeded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdvisoryCapacityCheck(t *testing.T) {
	tests := []struct {
		name      string
		maxGroups interface{}
		maxPeople interface{}
		people    int
		wantErr   string
	}{
		{"one-group cap reads as slot taken", 1, nil, 2, "slot_taken"},
		{"people cap", nil, 5, 2, "capacity_exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, closeDB := newTestHandler(t)
			defer closeDB()

			mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
				WillReturnRows(mock.NewRows(ruleCols).AddRow(
					1, "store-1", nil, nil, nil, nil,
					"18:00", "22:00", tt.maxGroups, tt.maxPeople, nil, nil,
					time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))
			// One active 4-person group already sits inside the 18:00-22:00 range.
			mock.ExpectQuery("SELECT (.+) FROM reservations").
				WithArgs("store-1", "2025-09-04").
				WillReturnRows(reservationRow(mock, 3, "2025-09-04", "19:30", 4))

			body := `{"storeId":"store-1","name":"Sato","phone":"090","date":"2025-09-04","time":"19:00","people":2}`
			rec := doCreate(h, body, nil)

			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListReturnsEvents(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	// Bare end date is exclusive at the following local midnight.
	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs("store-1",
			time.Date(2025, 8, 31, 15, 0, 0, 0, time.UTC), // 2025-09-01 00:00 JST
			time.Date(2025, 9, 7, 15, 0, 0, 0, time.UTC)). // 2025-09-08 00:00 JST
		WillReturnRows(reservationRow(mock, 7, "2025-09-04", "21:30", 4))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/reservations?storeId=store-1&start=2025-09-01&end=2025-09-07", nil)
	rec := httptest.NewRecorder()
	_ = h.List(e.NewContext(req, rec))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"booking-7"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRequiresParams(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/reservations?storeId=store-1", nil)
	rec := httptest.NewRecorder()
	_ = h.List(e.NewContext(req, rec))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func doCancel(h *ReservationHandler, id string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	_ = h.Cancel(c)
	return rec
}

func TestCancel(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(reservationRow(mock, 7, "2025-09-04", "21:30", 4))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doCancel(h, "7")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSameDayPolicy(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	today := time.Now().In(jst).Format("2006-01-02")
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(reservationRow(mock, 7, today, "21:30", 4))

	rec := doCancel(h, "7")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "same_day_cancel_disabled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownID(t *testing.T) {
	h, mock, closeDB := newTestHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	rec := doCancel(h, "99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
