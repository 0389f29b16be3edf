package circulation

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/library/membership"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/ids"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const loanColumns = `i.issue_id, i.issue_ulid, i.serial_no, i.membership_id, i.issue_date, i.planned_return,
	i.actual_return_date, i.fine_amount, i.fine_paid, i.remarks`

type rowScanner interface{ Scan(...any) error }

func scanLoan(sc rowScanner, extra ...any) (*Loan, error) {
	var (
		l       Loan
		actual  sql.NullTime
		remarks sql.NullString
	)
	dest := append([]any{
		&l.IssueID, &l.IssueULID, &l.SerialNo, &l.MembershipID, &l.IssueDate, &l.PlannedReturn,
		&actual, &l.FineAmount, &l.FinePaid, &remarks,
	}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	l.IssueDate = calendar.DateOf(l.IssueDate)
	l.PlannedReturn = calendar.DateOf(l.PlannedReturn)
	if actual.Valid {
		t := calendar.DateOf(actual.Time)
		l.ActualReturn = &t
	}
	l.Remarks = remarks.String
	return &l, nil
}

// ===== issue =====

// lockCopy は資料の状態を行ロック付きで読む
func (s *Store) lockCopy(ctx context.Context, tx db.DBTX, serial string) (catalog.Status, error) {
	var st catalog.Status
	err := tx.QueryRowContext(ctx, `SELECT status FROM books WHERE serial_no = ? FOR UPDATE`, serial).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apierr.NotFound("book not found")
	}
	return st, err
}

// lockMember は会員の状態と期限を共有ロックで読む（貸出中に無効化されないように）
func (s *Store) lockMember(ctx context.Context, tx db.DBTX, id string) (membership.Status, time.Time, error) {
	var (
		st  membership.Status
		end time.Time
	)
	const q = `SELECT status, end_date FROM members WHERE membership_id = ? LOCK IN SHARE MODE`
	err := tx.QueryRowContext(ctx, q, id).Scan(&st, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, apierr.NotFound("membership not found")
	}
	return st, calendar.DateOf(end), err
}

func (s *Store) insertLoan(ctx context.Context, tx db.DBTX, l *Loan) (int64, error) {
	const q = `
	INSERT INTO issues
	(issue_ulid, serial_no, membership_id, issue_date, planned_return, actual_return_date, fine_amount, fine_paid, remarks)
	VALUES (?, ?, ?, ?, ?, NULL, 0, 0, ?)`
	var remarks any
	if l.Remarks != "" {
		remarks = l.Remarks
	}
	res, err := tx.ExecContext(ctx, q,
		l.IssueULID, l.SerialNo, l.MembershipID,
		calendar.Format(l.IssueDate), calendar.Format(l.PlannedReturn), remarks,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// markIssued は Available の場合だけ Issued にする（条件付き UPDATE）
func (s *Store) markIssued(ctx context.Context, tx db.DBTX, serial string) error {
	res, err := tx.ExecContext(ctx, `UPDATE books SET status = 'Issued' WHERE serial_no = ? AND status = 'Available'`, serial)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.Conflict("book not available")
	}
	return nil
}

// ===== return =====

// lockOpenLoan は会員×資料の未返却貸出を書誌情報付きでロックする
func (s *Store) lockOpenLoan(ctx context.Context, tx db.DBTX, membershipID, serial string) (*Loan, string, string, error) {
	q := `SELECT ` + loanColumns + `, b.name, b.author
	FROM issues i JOIN books b ON b.serial_no = i.serial_no
	WHERE i.membership_id = ? AND i.serial_no = ? AND i.actual_return_date IS NULL
	ORDER BY i.issue_id DESC LIMIT 1
	FOR UPDATE`
	var name, author string
	l, err := scanLoan(tx.QueryRowContext(ctx, q, membershipID, serial), &name, &author)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", apierr.NotFound("active issue not found for this book and member")
		}
		return nil, "", "", err
	}
	return l, name, author, nil
}

func (s *Store) setPlannedReturn(ctx context.Context, tx db.DBTX, issueID int64, d time.Time) error {
	const q = `UPDATE issues SET planned_return = ? WHERE issue_id = ? AND actual_return_date IS NULL`
	_, err := tx.ExecContext(ctx, q, calendar.Format(d), issueID)
	return err
}

// lockLoan は issue_id（数値）または issue_ulid で貸出をロックする
func (s *Store) lockLoan(ctx context.Context, tx db.DBTX, key string) (*Loan, error) {
	return s.loanByKey(ctx, tx, key, true)
}

func (s *Store) loanByKey(ctx context.Context, q db.DBTX, key string, forUpdate bool) (*Loan, error) {
	var (
		where string
		arg   any
	)
	if ids.IsULID(key) {
		where, arg = "i.issue_ulid = ?", key
	} else {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return nil, apierr.Invalid("issue_id must be a number or ULID")
		}
		where, arg = "i.issue_id = ?", id
	}
	query := `SELECT ` + loanColumns + ` FROM issues i WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanLoan(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("issue not found")
		}
		return nil, err
	}
	return l, nil
}

// settleLoan は未返却の貸出だけを確定する
func (s *Store) settleLoan(ctx context.Context, tx db.DBTX, issueID int64, actual time.Time, fine decimal.Decimal, paid bool) error {
	const q = `
	UPDATE issues SET actual_return_date = ?, fine_amount = ?, fine_paid = ?
	WHERE issue_id = ? AND actual_return_date IS NULL`
	res, err := tx.ExecContext(ctx, q, calendar.Format(actual), fine, paid, issueID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.Conflict("loan already settled")
	}
	return nil
}

func (s *Store) markAvailable(ctx context.Context, tx db.DBTX, serial string) error {
	// 既に Available（キャッシュ不整合）の場合 affected=0 になるが、結果は同じなので許容
	_, err := tx.ExecContext(ctx, `UPDATE books SET status = 'Available' WHERE serial_no = ?`, serial)
	return err
}

func (s *Store) accrueFine(ctx context.Context, tx db.DBTX, membershipID string, fine decimal.Decimal) error {
	const q = `UPDATE members SET pending_fine = pending_fine + ? WHERE membership_id = ?`
	_, err := tx.ExecContext(ctx, q, fine, membershipID)
	return err
}

// ===== reconcile =====

// divergentCopies は status と未返却貸出の有無が食い違う資料
func (s *Store) divergentCopies(ctx context.Context, tx db.DBTX) ([]Divergence, error) {
	const q = `
	SELECT b.serial_no, b.status, COUNT(i.issue_id) AS open_loans
	FROM books b
	LEFT JOIN issues i ON i.serial_no = b.serial_no AND i.actual_return_date IS NULL
	GROUP BY b.serial_no, b.status
	HAVING (b.status = 'Issued') <> (COUNT(i.issue_id) > 0) OR COUNT(i.issue_id) > 1
	ORDER BY b.serial_no`
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Divergence
	for rows.Next() {
		var d Divergence
		if err := rows.Scan(&d.SerialNo, &d.Cached, &d.OpenLoans); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// rewriteStatus は台帳から status を導出して書き直す。読み取りと書き込みの間の競合を避けるため1文で行う
func (s *Store) rewriteStatus(ctx context.Context, tx db.DBTX, serial string) (int64, error) {
	const q = `
	UPDATE books SET status = CASE
		WHEN EXISTS (SELECT 1 FROM issues i WHERE i.serial_no = books.serial_no AND i.actual_return_date IS NULL)
		THEN 'Issued' ELSE 'Available' END
	WHERE serial_no = ?`
	res, err := tx.ExecContext(ctx, q, serial)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ledgerCounts(ctx context.Context, tx db.DBTX, today time.Time) (open, overdue int, err error) {
	const q = `
	SELECT COUNT(*), COALESCE(SUM(planned_return < ?), 0)
	FROM issues WHERE actual_return_date IS NULL`
	err = tx.QueryRowContext(ctx, q, calendar.Format(today)).Scan(&open, &overdue)
	return open, overdue, err
}
