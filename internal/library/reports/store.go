package reports

import (
	"context"
	"database/sql"
	"time"

	"LIBRA-backend/internal/library/calendar"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func nullDate(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := calendar.Format(t.Time)
	return &s
}

func (s *Store) Copies(ctx context.Context, kind string) ([]CopyRow, error) {
	const q = `
	SELECT serial_no, name, author, category, status, cost, procurement_date, type
	FROM books WHERE type = ? ORDER BY serial_no`
	rows, err := s.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CopyRow{}
	for rows.Next() {
		var (
			r    CopyRow
			proc sql.NullTime
		)
		if err := rows.Scan(&r.SerialNo, &r.Name, &r.Author, &r.Category, &r.Status, &r.Cost, &proc, &r.Type); err != nil {
			return nil, err
		}
		r.ProcurementDate = nullDate(proc)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Members(ctx context.Context) ([]MemberRow, error) {
	const q = `
	SELECT membership_id, first_name, last_name, phone, address, aadhar, start_date, end_date, status, pending_fine
	FROM members ORDER BY membership_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MemberRow{}
	for rows.Next() {
		var (
			r          MemberRow
			start, end time.Time
		)
		if err := rows.Scan(&r.MembershipID, &r.FirstName, &r.LastName, &r.Phone, &r.Address, &r.Aadhar,
			&start, &end, &r.Status, &r.PendingFine); err != nil {
			return nil, err
		}
		r.StartDate, r.EndDate = calendar.Format(start), calendar.Format(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Loans は where 句付きで issues を書名込みで返す。days_late は asOf 基準（返却済みは実返却日基準）
func (s *Store) Loans(ctx context.Context, where string, asOf time.Time, args ...any) ([]LoanRow, error) {
	q := `
	SELECT i.issue_id, i.issue_ulid, i.serial_no, b.name, i.membership_id, i.issue_date, i.planned_return,
		i.actual_return_date, i.fine_amount, i.fine_paid
	FROM issues i JOIN books b ON b.serial_no = i.serial_no
	WHERE ` + where + `
	ORDER BY i.issue_id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LoanRow{}
	for rows.Next() {
		var (
			r               LoanRow
			issued, planned time.Time
			actual          sql.NullTime
		)
		if err := rows.Scan(&r.IssueID, &r.IssueULID, &r.SerialNo, &r.Name, &r.MembershipID, &issued, &planned,
			&actual, &r.FineAmount, &r.FinePaid); err != nil {
			return nil, err
		}
		r.IssueDate, r.PlannedReturn = calendar.Format(issued), calendar.Format(planned)
		r.ActualReturnDate = nullDate(actual)
		end := asOf
		if actual.Valid {
			end = actual.Time
		}
		r.DaysLate = calendar.DaysLate(calendar.DateOf(planned), calendar.DateOf(end))
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Requests(ctx context.Context) ([]RequestRow, error) {
	const q = `
	SELECT request_id, membership_id, book_name, requested_date, fulfilled_date
	FROM issue_requests ORDER BY request_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RequestRow{}
	for rows.Next() {
		var (
			r         RequestRow
			requested time.Time
			fulfilled sql.NullTime
		)
		if err := rows.Scan(&r.RequestID, &r.MembershipID, &r.BookName, &requested, &fulfilled); err != nil {
			return nil, err
		}
		r.RequestedDate = calendar.Format(requested)
		r.FulfilledDate = nullDate(fulfilled)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ProductDetails(ctx context.Context) ([]ProductDetail, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code_from, code_to, category FROM product_details WHERE is_disabled = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProductDetail{}
	for rows.Next() {
		var p ProductDetail
		if err := rows.Scan(&p.CodeFrom, &p.CodeTo, &p.Category); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
