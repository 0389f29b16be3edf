package circulation

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/library/calendar"
)

func serve(r http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func TestHandler_IssueCreated(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	r := newRouter(svc)

	mock.ExpectBegin()
	expectCopy(mock, "Available")
	expectMember(mock, "Active", calendar.Date(2025, 12, 31))
	mock.ExpectExec(`INSERT INTO issues`).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Issued'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := serve(r, http.MethodPost, "/issue", url.Values{
		"serial_no": {"B000001"}, "membership_id": {"M100"},
		"issue_date": {day(0)}, "planned_return": {day(10)}, "remarks": {"counter 2"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/transactions/issues/"+testULID, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), `"issue_id":7`)
}

func TestHandler_FinePendingIs422(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	r := newRouter(svc)
	planned := calendar.AddDays(today, 10)

	mock.ExpectBegin()
	expectLoanByID(mock, loanRow(planned, nil))
	mock.ExpectRollback()

	w := serve(r, http.MethodPost, "/fine", url.Values{
		"issue_id": {"7"}, "actual_return_date": {calendar.Format(calendar.AddDays(planned, 3))},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":{"code":"POLICY_VIOLATION","message":"fine pending, please mark fine paid"}}`, w.Body.String())
}

func TestHandler_IssueConflictIs409(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	r := newRouter(svc)

	mock.ExpectBegin()
	expectCopy(mock, "Issued")
	mock.ExpectRollback()

	w := serve(r, http.MethodPost, "/issue", url.Values{
		"serial_no": {"B000001"}, "membership_id": {"M100"},
		"issue_date": {day(0)}, "planned_return": {day(10)},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "book not available")
}

func TestHandler_GetLoan(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	r := newRouter(svc)

	mock.ExpectQuery(`FROM issues i WHERE i.issue_id = \?$`).
		WithArgs(7).
		WillReturnRows(loanRow(calendar.AddDays(today, 10), nil))

	w := serve(r, http.MethodGet, "/issues/7", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"issue_ulid":"`+testULID+`"`)
	assert.Contains(t, w.Body.String(), `"actual_return_date":null`)

	w = serve(r, http.MethodGet, "/issues/not-a-key", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
