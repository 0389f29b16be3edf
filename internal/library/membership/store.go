package membership

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const memberColumns = `membership_id, first_name, last_name, phone, address, aadhar, start_date, end_date, status, pending_fine`

func (s *Store) Insert(ctx context.Context, m *Member) error {
	const q = `
	INSERT INTO members
	(membership_id, first_name, last_name, phone, address, aadhar, start_date, end_date, status, pending_fine)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`
	_, err := s.db.ExecContext(ctx, q,
		m.MembershipID, m.FirstName, m.LastName, m.Phone, m.Address, m.Aadhar,
		calendar.Format(m.StartDate), calendar.Format(m.EndDate), string(m.Status),
	)
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE membership_id = ?`
	var m Member
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&m.MembershipID, &m.FirstName, &m.LastName, &m.Phone, &m.Address, &m.Aadhar,
		&m.StartDate, &m.EndDate, &m.Status, &m.PendingFine,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("membership not found")
		}
		return nil, err
	}
	return &m, nil
}

// lockWindow は期間と状態を行ロック付きで取得する
func (s *Store) lockWindow(ctx context.Context, tx db.DBTX, id string) (start, end time.Time, status Status, err error) {
	const q = `SELECT start_date, end_date, status FROM members WHERE membership_id = ? FOR UPDATE`
	if err = tx.QueryRowContext(ctx, q, id).Scan(&start, &end, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return start, end, status, apierr.NotFound("membership not found")
		}
		return start, end, status, err
	}
	return start, end, status, nil
}

func (s *Store) updateWindow(ctx context.Context, tx db.DBTX, id string, end time.Time, status Status) error {
	const q = `UPDATE members SET end_date = ?, status = ? WHERE membership_id = ?`
	res, err := tx.ExecContext(ctx, q, calendar.Format(end), string(status), id)
	if err != nil {
		return err
	}
	// 値が変わらない場合 MySQL は affected=0 を返すので 0/1 を許容
	if aff, _ := res.RowsAffected(); aff > 1 {
		return errors.New("members: unexpected rows affected")
	}
	return nil
}
