package requests

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/ids"
)

const testULID = "01HZX3J8Q4N2K7M5P9R6T0V1WB"

var cols = []string{"request_id", "request_ulid", "membership_id", "book_name", "requested_date", "fulfilled_date"}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	svc := NewService(conn, calendar.FixedClock(calendar.Date(2025, time.March, 10)))
	svc.id = ids.Fixed(testULID)
	return svc, mock
}

func TestCreate_DefaultsToToday(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT 1 FROM members WHERE membership_id = \?`).
		WithArgs("M100").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO issue_requests`).
		WithArgs(testULID, "M100", "Malgudi Days", "2025-03-10").
		WillReturnResult(sqlmock.NewResult(12, 1))

	res, err := svc.Create(context.Background(), CreateRequest{MembershipID: "M100", BookName: " Malgudi Days "})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), res.RequestID)
	assert.Equal(t, "2025-03-10", res.RequestedDate)
	assert.Nil(t, res.FulfilledDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownMember(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM members`).WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := svc.Create(context.Background(), CreateRequest{MembershipID: "M404", BookName: "x"})
	assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfill(t *testing.T) {
	tests := []struct {
		name      string
		fulfilled any
		date      string
		ok        bool
		code      apierr.Code
	}{
		{name: "open request", fulfilled: nil, date: "2025-03-09", ok: true},
		{name: "already fulfilled", fulfilled: calendar.Date(2025, 3, 8), date: "", code: apierr.CodeConflict},
		{name: "before requested", fulfilled: nil, date: "2025-03-01", code: apierr.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)

			mock.ExpectBegin()
			mock.ExpectQuery(`FROM issue_requests WHERE request_id = \? FOR UPDATE`).
				WithArgs(12).
				WillReturnRows(sqlmock.NewRows(cols).AddRow(12, testULID, "M100", "Malgudi Days", calendar.Date(2025, 3, 5), tt.fulfilled))
			if tt.ok {
				mock.ExpectExec(`UPDATE issue_requests SET fulfilled_date = \? WHERE request_id = \? AND fulfilled_date IS NULL`).
					WithArgs(tt.date, 12).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			res, err := svc.Fulfill(context.Background(), "12", FulfillRequest{FulfilledDate: tt.date})
			if tt.ok {
				require.NoError(t, err)
				require.NotNil(t, res.FulfilledDate)
				assert.Equal(t, tt.date, *res.FulfilledDate)
			} else {
				assert.Equal(t, tt.code, apierr.CodeOf(err))
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestList_FiltersAndPaging(t *testing.T) {
	svc, mock := newTestService(t)
	pending := true

	mock.ExpectQuery(`SELECT .* FROM issue_requests WHERE membership_id = \? AND fulfilled_date IS NULL AND requested_date >= \? ORDER BY requested_date DESC, request_id DESC LIMIT 2 OFFSET 0`).
		WithArgs("M100", "2025-03-01").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(14, testULID, "M100", "B", calendar.Date(2025, 3, 9), nil).
			AddRow(13, testULID, "M100", "A", calendar.Date(2025, 3, 8), nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM issue_requests WHERE membership_id = \? AND fulfilled_date IS NULL AND requested_date >= \?`).
		WithArgs("M100", "2025-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	res, err := svc.List(context.Background(), ListQuery{MembershipID: "M100", Pending: &pending, From: "2025-03-01", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, int64(3), res.Total)
	require.NotNil(t, res.NextOffset)
	assert.Equal(t, 2, *res.NextOffset)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_RejectsBadRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListQuery{From: "2025-03-10", To: "2025-03-01"})
	assert.Equal(t, apierr.CodeInvalidInput, apierr.CodeOf(err))

	_, err = svc.List(context.Background(), ListQuery{Sort: "name"})
	assert.Equal(t, apierr.CodeInvalidInput, apierr.CodeOf(err))
}
