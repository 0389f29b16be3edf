package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/ids"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const requestColumns = `request_id, request_ulid, membership_id, book_name, requested_date, fulfilled_date`

func scanRequest(sc interface{ Scan(...any) error }) (Request, error) {
	var r requestRow
	if err := sc.Scan(&r.RequestID, &r.RequestULID, &r.MembershipID, &r.BookName, &r.RequestedDate, &r.FulfilledDate); err != nil {
		return Request{}, err
	}
	return r.toModel(), nil
}

func (s *Store) memberExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM members WHERE membership_id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Insert(ctx context.Context, r *Request) error {
	const q = `
	INSERT INTO issue_requests (request_ulid, membership_id, book_name, requested_date, fulfilled_date)
	VALUES (?, ?, ?, ?, NULL)`
	res, err := s.db.ExecContext(ctx, q, r.RequestULID, r.MembershipID, r.BookName, calendar.Format(r.RequestedDate))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.RequestID = uint64(id)
	return nil
}

// byKey は request_id（数値）または request_ulid で1件引く
func (s *Store) byKey(ctx context.Context, q db.DBTX, key string, forUpdate bool) (Request, error) {
	var (
		where string
		arg   any
	)
	if ids.IsULID(key) {
		where, arg = "request_ulid = ?", key
	} else {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			return Request{}, apierr.Invalid("request_id must be a number or ULID")
		}
		where, arg = "request_id = ?", id
	}
	query := `SELECT ` + requestColumns + ` FROM issue_requests WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	r, err := scanRequest(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, apierr.NotFound("request not found")
	}
	return r, err
}

func (s *Store) setFulfilled(ctx context.Context, tx db.DBTX, id uint64, d time.Time) error {
	const q = `UPDATE issue_requests SET fulfilled_date = ? WHERE request_id = ? AND fulfilled_date IS NULL`
	res, err := tx.ExecContext(ctx, q, calendar.Format(d), id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.Conflict("request already fulfilled")
	}
	return nil
}

// List: 条件に応じて動的WHERE + ORDER + LIMIT/OFFSET
func (s *Store) List(ctx context.Context, q ListQuery, from, to *time.Time) ([]Request, int64, error) {
	var (
		sb     strings.Builder
		args   []any
		wheres []string
	)
	if q.MembershipID != "" {
		wheres = append(wheres, "membership_id = ?")
		args = append(args, q.MembershipID)
	}
	if q.Pending != nil {
		if *q.Pending {
			wheres = append(wheres, "fulfilled_date IS NULL")
		} else {
			wheres = append(wheres, "fulfilled_date IS NOT NULL")
		}
	}
	if from != nil {
		wheres = append(wheres, "requested_date >= ?")
		args = append(args, calendar.Format(*from))
	}
	if to != nil {
		wheres = append(wheres, "requested_date <= ?")
		args = append(args, calendar.Format(*to))
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	sb.WriteString(`SELECT ` + requestColumns + ` FROM issue_requests` + where)
	if q.Sort == SortRequestedAsc {
		sb.WriteString(" ORDER BY requested_date ASC, request_id ASC")
	} else {
		sb.WriteString(" ORDER BY requested_date DESC, request_id DESC")
	}
	sb.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issue_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
