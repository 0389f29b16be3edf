package circulation

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

const testULID = "01HZX3J8Q4N2K7M5P9R6T0V1WA"

var today = calendar.Date(2025, time.March, 10)

func newTestService(t *testing.T, p Policy) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	svc := NewService(conn, calendar.FixedClock(today.Add(15*time.Hour)), p)
	svc.id = ids.Fixed(testULID)
	return svc, mock
}

func day(offset int) string { return calendar.Format(calendar.AddDays(today, offset)) }

var loanCols = []string{
	"issue_id", "issue_ulid", "serial_no", "membership_id", "issue_date", "planned_return",
	"actual_return_date", "fine_amount", "fine_paid", "remarks",
}

func loanRow(planned time.Time, actual any) *sqlmock.Rows {
	return sqlmock.NewRows(loanCols).AddRow(
		7, testULID, "B000001", "M100", calendar.AddDays(today, -5), planned, actual, "0.00", 0, nil)
}

// ===== IssueCopy =====

func expectCopy(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(`SELECT status FROM books WHERE serial_no = \? FOR UPDATE`).
		WithArgs("B000001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(status))
}

func expectMember(mock sqlmock.Sqlmock, status string, end time.Time) {
	mock.ExpectQuery(`SELECT status, end_date FROM members WHERE membership_id = \? LOCK IN SHARE MODE`).
		WithArgs("M100").
		WillReturnRows(sqlmock.NewRows([]string{"status", "end_date"}).AddRow(status, end))
}

func issueReq(issue, planned string) IssueRequest {
	return IssueRequest{SerialNo: "B000001", MembershipID: "M100", IssueDate: issue, PlannedReturn: planned}
}

func TestIssueCopy_MarksCopyIssued(t *testing.T) {
	svc, mock := newTestService(t, Policy{})

	mock.ExpectBegin()
	expectCopy(mock, "Available")
	expectMember(mock, "Active", calendar.Date(2025, 12, 31))
	mock.ExpectExec(`INSERT INTO issues`).
		WithArgs(testULID, "B000001", "M100", day(0), day(10), nil).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Issued' WHERE serial_no = \? AND status = 'Available'`).
		WithArgs("B000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.IssueCopy(context.Background(), issueReq(day(0), day(10)))
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.IssueID)
	assert.Equal(t, testULID, res.IssueULID)
	assert.True(t, res.FineAmount.IsZero())
	assert.False(t, res.FinePaid)
	assert.Nil(t, res.ActualReturnDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCopy_LoanWindowBoundary(t *testing.T) {
	svc, mock := newTestService(t, Policy{})

	// +15日はOK
	mock.ExpectBegin()
	expectCopy(mock, "Available")
	expectMember(mock, "Active", calendar.Date(2025, 12, 31))
	mock.ExpectExec(`INSERT INTO issues`).WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Issued'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.IssueCopy(context.Background(), issueReq(day(2), day(17)))
	require.NoError(t, err)

	// +16日は DB に触れずに拒否
	_, err = svc.IssueCopy(context.Background(), issueReq(day(2), day(18)))
	require.Error(t, err)
	assert.Equal(t, apierr.CodePolicyViolation, apierr.CodeOf(err))
	assert.Contains(t, err.Error(), "loan window exceeds 15 days")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCopy_RejectsBeforeTouchingStore(t *testing.T) {
	tests := []struct {
		name string
		req  IssueRequest
		code apierr.Code
		msg  string
	}{
		{"past issue date", issueReq(day(-1), day(3)), apierr.CodePolicyViolation, "issue date cannot precede today"},
		{"planned before issue", issueReq(day(3), day(1)), apierr.CodePolicyViolation, "planned return cannot precede issue date"},
		{"malformed date", issueReq("2025/03/10", day(3)), apierr.CodeInvalidInput, "invalid date format"},
		{"missing serial", IssueRequest{MembershipID: "M100", IssueDate: day(0), PlannedReturn: day(1)}, apierr.CodeInvalidInput, "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, Policy{})
			_, err := svc.IssueCopy(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, apierr.CodeOf(err))
			assert.Contains(t, err.Error(), tt.msg)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIssueCopy_StateConflicts(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		setup  func(sqlmock.Sqlmock)
		code   apierr.Code
		msg    string
	}{
		{
			name:  "copy already issued",
			setup: func(m sqlmock.Sqlmock) { expectCopy(m, "Issued") },
			code:  apierr.CodeConflict, msg: "book not available",
		},
		{
			name: "copy missing",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM books`).WillReturnRows(sqlmock.NewRows([]string{"status"}))
			},
			code: apierr.CodeNotFound, msg: "book not found",
		},
		{
			name: "membership missing",
			setup: func(m sqlmock.Sqlmock) {
				expectCopy(m, "Available")
				m.ExpectQuery(`FROM members`).WillReturnRows(sqlmock.NewRows([]string{"status", "end_date"}))
			},
			code: apierr.CodeNotFound, msg: "membership not found",
		},
		{
			name: "membership inactive",
			setup: func(m sqlmock.Sqlmock) {
				expectCopy(m, "Available")
				expectMember(m, "Inactive", calendar.Date(2025, 12, 31))
			},
			code: apierr.CodeConflict, msg: "membership inactive",
		},
		{
			name:   "membership expired with expiry enforcement",
			policy: Policy{EnforceMembershipExpiry: true},
			setup: func(m sqlmock.Sqlmock) {
				expectCopy(m, "Available")
				expectMember(m, "Active", calendar.Date(2025, 3, 1))
			},
			code: apierr.CodePolicyViolation, msg: "membership expired",
		},
		{
			name: "lost the conditional update",
			setup: func(m sqlmock.Sqlmock) {
				expectCopy(m, "Available")
				expectMember(m, "Active", calendar.Date(2025, 12, 31))
				m.ExpectExec(`INSERT INTO issues`).WillReturnResult(sqlmock.NewResult(9, 1))
				m.ExpectExec(`UPDATE books SET status = 'Issued'`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			code: apierr.CodeConflict, msg: "book not available",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, tt.policy)
			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			_, err := svc.IssueCopy(context.Background(), issueReq(day(0), day(5)))
			require.Error(t, err)
			assert.Equal(t, tt.code, apierr.CodeOf(err))
			assert.Contains(t, err.Error(), tt.msg)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIssueCopy_ExpiredMembershipAllowedByDefault(t *testing.T) {
	svc, mock := newTestService(t, Policy{})

	mock.ExpectBegin()
	expectCopy(mock, "Available")
	expectMember(mock, "Active", calendar.Date(2025, 3, 1))
	mock.ExpectExec(`INSERT INTO issues`).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Issued'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.IssueCopy(context.Background(), issueReq(day(0), day(5)))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ===== InitiateReturn =====

func expectOpenLoan(mock sqlmock.Sqlmock, planned time.Time) {
	cols := append(append([]string{}, loanCols...), "name", "author")
	mock.ExpectQuery(`FROM issues i JOIN books b ON b.serial_no = i.serial_no WHERE i.membership_id = \? AND i.serial_no = \? AND i.actual_return_date IS NULL`).
		WithArgs("M100", "B000001").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			7, testULID, "B000001", "M100", calendar.AddDays(today, -5), planned, nil, "0.00", 0, nil, "Dune", "Frank Herbert"))
}

func TestInitiateReturn_PreviewWithoutWrites(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	req := ReturnRequest{MembershipID: "M100", SerialNo: "B000001"}

	var previews []ReturnPreview
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		expectOpenLoan(mock, calendar.AddDays(today, -3))
		mock.ExpectCommit()

		p, err := svc.InitiateReturn(context.Background(), req)
		require.NoError(t, err)
		previews = append(previews, p)
	}

	assert.Equal(t, previews[0], previews[1])
	assert.Equal(t, 3, previews[0].LateDays)
	assert.Equal(t, "30", previews[0].ProjectedFine.String())
	assert.Equal(t, "Dune", previews[0].Name)
	assert.Equal(t, day(-3), previews[0].PlannedReturn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateReturn_PersistsNewDate(t *testing.T) {
	svc, mock := newTestService(t, Policy{})

	mock.ExpectBegin()
	expectOpenLoan(mock, calendar.AddDays(today, -3))
	mock.ExpectExec(`UPDATE issues SET planned_return = \? WHERE issue_id = \? AND actual_return_date IS NULL`).
		WithArgs(day(2), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.InitiateReturn(context.Background(), ReturnRequest{MembershipID: "M100", SerialNo: "B000001", PlannedReturn: day(2)})
	require.NoError(t, err)
	assert.Equal(t, 0, p.LateDays)
	assert.True(t, p.ProjectedFine.IsZero())
	assert.Equal(t, day(2), p.PlannedReturn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateReturn_Errors(t *testing.T) {
	svc, mock := newTestService(t, Policy{})

	_, err := svc.InitiateReturn(context.Background(), ReturnRequest{MembershipID: "M100", SerialNo: "B000001", NewReturnDate: "tomorrow"})
	assert.Equal(t, apierr.CodeInvalidInput, apierr.CodeOf(err))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM issues i JOIN books b`).WillReturnRows(sqlmock.NewRows(append(append([]string{}, loanCols...), "name", "author")))
	mock.ExpectRollback()

	_, err = svc.InitiateReturn(context.Background(), ReturnRequest{MembershipID: "M100", SerialNo: "B000001"})
	assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// ===== SettleReturn =====

func expectLoanByID(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`FROM issues i WHERE i.issue_id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(rows)
}

func TestSettleReturn_FinePendingThenPaid(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	planned := calendar.AddDays(today, 10)
	actual := calendar.Format(calendar.AddDays(planned, 3))

	mock.ExpectBegin()
	expectLoanByID(mock, loanRow(planned, nil))
	mock.ExpectRollback()

	_, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: "7", ActualReturnDate: actual, FinePaid: "false"})
	require.Error(t, err)
	assert.Equal(t, apierr.CodePolicyViolation, apierr.CodeOf(err))
	assert.Contains(t, err.Error(), "fine pending")

	mock.ExpectBegin()
	expectLoanByID(mock, loanRow(planned, nil))
	mock.ExpectExec(`UPDATE issues SET actual_return_date = \?, fine_amount = \?, fine_paid = \? WHERE issue_id = \? AND actual_return_date IS NULL`).
		WithArgs(actual, "30", true, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Available' WHERE serial_no = \?`).
		WithArgs("B000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: "7", ActualReturnDate: actual, FinePaid: "on"})
	require.NoError(t, err)
	assert.Equal(t, "30", res.Fine.String())
	assert.True(t, res.FinePaid)
	assert.False(t, res.Accrued)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleReturn_OnTimeNeedsNoPayment(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	planned := calendar.AddDays(today, 10)

	mock.ExpectBegin()
	expectLoanByID(mock, loanRow(planned, nil))
	mock.ExpectExec(`UPDATE issues SET actual_return_date`).
		WithArgs(calendar.Format(planned), "0", false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Available'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: "7", ActualReturnDate: calendar.Format(planned)})
	require.NoError(t, err)
	assert.True(t, res.Fine.IsZero())
	assert.False(t, res.FinePaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleReturn_AccruesWhenUnpaidSettlementAllowed(t *testing.T) {
	svc, mock := newTestService(t, Policy{AllowUnpaidSettlement: true})
	planned := calendar.AddDays(today, 10)
	actual := calendar.Format(calendar.AddDays(planned, 3))

	mock.ExpectBegin()
	expectLoanByID(mock, loanRow(planned, nil))
	mock.ExpectExec(`UPDATE issues SET actual_return_date`).
		WithArgs(actual, "30", false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Available'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE members SET pending_fine = pending_fine \+ \? WHERE membership_id = \?`).
		WithArgs("30", "M100").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: "7", ActualReturnDate: actual})
	require.NoError(t, err)
	assert.True(t, res.Accrued)
	assert.False(t, res.FinePaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleReturn_ByULID(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	planned := calendar.AddDays(today, 10)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM issues i WHERE i.issue_ulid = \? FOR UPDATE`).
		WithArgs(testULID).
		WillReturnRows(loanRow(planned, nil))
	mock.ExpectExec(`UPDATE issues SET actual_return_date`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET status = 'Available'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: testULID, ActualReturnDate: calendar.Format(planned)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.IssueID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleReturn_Rejections(t *testing.T) {
	planned := calendar.AddDays(today, 10)
	tests := []struct {
		name string
		req  SettleRequest
		rows *sqlmock.Rows
		code apierr.Code
		msg  string
	}{
		{
			name: "unknown loan",
			req:  SettleRequest{IssueID: "7", ActualReturnDate: "not-a-date"},
			rows: sqlmock.NewRows(loanCols),
			code: apierr.CodeNotFound, msg: "issue not found",
		},
		{
			name: "malformed date",
			req:  SettleRequest{IssueID: "7", ActualReturnDate: "2025-02-30"},
			rows: loanRow(planned, nil),
			code: apierr.CodeInvalidInput, msg: "invalid date format",
		},
		{
			name: "already settled",
			req:  SettleRequest{IssueID: "7", ActualReturnDate: calendar.Format(planned), FinePaid: "true"},
			rows: loanRow(planned, planned),
			code: apierr.CodeConflict, msg: "loan already settled",
		},
		{
			name: "return before issue",
			req:  SettleRequest{IssueID: "7", ActualReturnDate: day(-6)},
			rows: loanRow(planned, nil),
			code: apierr.CodeInvalidInput, msg: "cannot precede issue date",
		},
		{
			name: "bad fine_paid",
			req:  SettleRequest{IssueID: "7", ActualReturnDate: calendar.Format(planned), FinePaid: "maybe"},
			rows: loanRow(planned, nil),
			code: apierr.CodeInvalidInput, msg: "fine_paid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, Policy{})
			mock.ExpectBegin()
			expectLoanByID(mock, tt.rows)
			mock.ExpectRollback()

			_, err := svc.SettleReturn(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, apierr.CodeOf(err))
			assert.Contains(t, err.Error(), tt.msg)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSettleReturn_NonNumericKey(t *testing.T) {
	svc, mock := newTestService(t, Policy{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.SettleReturn(context.Background(), SettleRequest{IssueID: "abc", ActualReturnDate: day(0)})
	assert.Equal(t, apierr.CodeInvalidInput, apierr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFineFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-4, "0"}, {0, "0"}, {1, "10"}, {3, "30"}, {45, "450"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FineFor(tt.days).String())
	}
}

func TestParseFlag(t *testing.T) {
	for in, want := range map[string]bool{"": false, "on": true, "true": true, "1": true, "false": false, "off": false, "No": false} {
		got, err := parseFlag(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseFlag("maybe")
	assert.Error(t, err)
}
