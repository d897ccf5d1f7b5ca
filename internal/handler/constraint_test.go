package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukue/slotbook/internal/repository"
)

func newConstraintHandler(t *testing.T) (*ConstraintHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewConstraintHandler(repository.NewRuleRepo(db), jst)
	return h, mock, func() { db.Close() }
}

func TestConstraintListExpandsRules(t *testing.T) {
	h, mock, closeDB := newConstraintHandler(t)
	defer closeDB()

	created := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	// One single-date rule and one recurring Thursday rule.  Over the week
	// 2025-09-01..2025-09-07 the Thursday rule applies once (Sep 4).
	mock.ExpectQuery("SELECT (.+) FROM capacity_rules").
		WithArgs("store-1").
		WillReturnRows(mock.NewRows(ruleCols).
			AddRow(1, "store-1", "2025-09-02", nil, nil, nil, "18:00", "20:00", 1, nil, nil, nil, created).
			AddRow(2, "store-1", nil, nil, nil, 4, "12:00", "14:00", nil, 10, nil, nil, created))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/constraints?storeId=store-1&start=2025-09-01&end=2025-09-07", nil)
	rec := httptest.NewRecorder()
	_ = h.List(e.NewContext(req, rec))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, `"constraint-1"`))
	assert.Equal(t, 1, strings.Count(body, `"constraint-2"`))
	assert.Contains(t, body, `"background"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintListRequiresParams(t *testing.T) {
	h, mock, closeDB := newConstraintHandler(t)
	defer closeDB()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/constraints?storeId=store-1", nil)
	rec := httptest.NewRecorder()
	_ = h.List(e.NewContext(req, rec))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func doReplace(h *ConstraintHandler, storeID, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut,
		"/v1/stores/"+storeID+"/constraints", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("storeId")
	c.SetParamValues(storeID)
	_ = h.Replace(c)
	return rec
}

func TestConstraintReplace(t *testing.T) {
	h, mock, closeDB := newConstraintHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM capacity_rules").
		WithArgs("store-1", "2025-09-04").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO capacity_rules").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	body := `{"date":"2025-09-04","constraints":[{"startTime":"18:00","endTime":"21:00","maxGroups":1}]}`
	rec := doReplace(h, "store-1", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"replaced":1`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintReplaceValidatesTimes(t *testing.T) {
	h, mock, closeDB := newConstraintHandler(t)
	defer closeDB()

	tests := []string{
		`{"date":"2025-09-04","constraints":[{"startTime":"25:00","endTime":"26:00"}]}`,
		`{"date":"2025-09-04","constraints":[{"startTime":"21:00","endTime":"18:00"}]}`,
		`{"date":"not-a-date","constraints":[]}`,
	}
	for _, body := range tests {
		rec := doReplace(h, "store-1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintReplaceClearsDate(t *testing.T) {
	h, mock, closeDB := newConstraintHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM capacity_rules").
		WithArgs("store-1", "2025-09-04").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	rec := doReplace(h, "store-1", `{"date":"2025-09-04","constraints":[]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"replaced":0`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
