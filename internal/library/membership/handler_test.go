package membership

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Enroll(t *testing.T) {
	svc, mock := newTestService(t)
	r := newRouter(svc)

	mock.ExpectExec("INSERT INTO members").WillReturnResult(sqlmock.NewResult(0, 1))

	w := postForm(r, "/membership/add", url.Values{
		"membership_id": {"M100"}, "first_name": {"Asha"}, "last_name": {"Rao"},
		"phone": {"9800000000"}, "address": {"12 MG Road"}, "aadhar": {"123412341234"},
		"start_date": {"2024-01-31"}, "plan": {"1y"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/maintenance/membership/M100", w.Header().Get("Location"))

	var body MemberResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-01-31", body.EndDate)
}

func TestHandler_UpdateErrorBody(t *testing.T) {
	svc, mock := newTestService(t)
	r := newRouter(svc)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"start_date", "end_date", "status"}))
	mock.ExpectRollback()

	w := postForm(r, "/membership/update", url.Values{"membership_id": {"M404"}, "action": {"extend6"}})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"membership not found"}}`, w.Body.String())
}
