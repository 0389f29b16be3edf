package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const copyColumns = `serial_no, name, author, category, status, cost, procurement_date, type`

func scanCopy(sc interface{ Scan(...any) error }) (*Copy, error) {
	var c Copy
	var proc sql.NullTime
	if err := sc.Scan(&c.SerialNo, &c.Name, &c.Author, &c.Category, &c.Status, &c.Cost, &proc, &c.Type); err != nil {
		return nil, err
	}
	if proc.Valid {
		t := calendar.DateOf(proc.Time)
		c.ProcurementDate = &t
	}
	return &c, nil
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return calendar.Format(*t)
}

// ===== copies =====

func (s *Store) insertCopies(ctx context.Context, tx db.DBTX, copies []Copy) error {
	if len(copies) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO books (` + copyColumns + `) VALUES `)
	args := make([]any, 0, len(copies)*8)
	for i, c := range copies {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, c.SerialNo, c.Name, c.Author, c.Category, string(c.Status), c.Cost, dateArg(c.ProcurementDate), string(c.Type))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *Store) getCopy(ctx context.Context, q db.DBTX, serial string, forUpdate bool) (*Copy, error) {
	query := `SELECT ` + copyColumns + ` FROM books WHERE serial_no = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, err := scanCopy(q.QueryRowContext(ctx, query, serial))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("book not found")
		}
		return nil, err
	}
	return c, nil
}

func (s *Store) updateCopy(ctx context.Context, tx db.DBTX, c *Copy) error {
	const q = `
	UPDATE books SET name = ?, author = ?, category = ?, status = ?, procurement_date = ?
	WHERE serial_no = ?`
	_, err := tx.ExecContext(ctx, q, c.Name, c.Author, c.Category, string(c.Status), dateArg(c.ProcurementDate), c.SerialNo)
	return err
}

func (s *Store) countOpenLoans(ctx context.Context, tx db.DBTX, serial string) (int, error) {
	const q = `SELECT COUNT(*) FROM issues WHERE serial_no = ? AND actual_return_date IS NULL`
	var n int
	err := tx.QueryRowContext(ctx, q, serial).Scan(&n)
	return n, err
}

func (s *Store) serialsOfKind(ctx context.Context, tx db.DBTX, k Kind) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT serial_no FROM books WHERE type = ?`, string(k))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// serialsWithPrefix は種別を問わず prefix で始まるシリアルを返す
func (s *Store) serialsWithPrefix(ctx context.Context, tx db.DBTX, prefix string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT serial_no FROM books WHERE serial_no LIKE ?`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// searchAvailable: 空でない条件のみ OR で結ぶ
func (s *Store) searchAvailable(ctx context.Context, book, author string) ([]Copy, error) {
	var conds []string
	var args []any
	if book != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+escapeLike(book)+"%")
	}
	if author != "" {
		conds = append(conds, "author LIKE ?")
		args = append(args, "%"+escapeLike(author)+"%")
	}
	q := `SELECT ` + copyColumns + ` FROM books WHERE status = 'Available' AND (` +
		strings.Join(conds, " OR ") + `) ORDER BY serial_no`
	return s.queryCopies(ctx, q, args...)
}

func (s *Store) listBySerials(ctx context.Context, serials []string) ([]Copy, error) {
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(serials)), ", ")
	args := make([]any, len(serials))
	for i, v := range serials {
		args[i] = v
	}
	q := `SELECT ` + copyColumns + ` FROM books WHERE serial_no IN (` + ph + `) ORDER BY serial_no`
	return s.queryCopies(ctx, q, args...)
}

func (s *Store) queryCopies(ctx context.Context, q string, args ...any) ([]Copy, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Copy{}
	for rows.Next() {
		c, err := scanCopy(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ===== serial counters =====

// lockCounter は種別カウンタを行ロック付きで読む。行が無ければ ok=false
func (s *Store) lockCounter(ctx context.Context, tx db.DBTX, k Kind) (last uint64, ok bool, err error) {
	const q = `SELECT last_value FROM serial_counters WHERE kind = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, q, string(k)).Scan(&last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return last, true, nil
}

// insertCounter は初回の払い出し時にカウンタ行を作る。同時初期化は 1062 で失敗する
func (s *Store) insertCounter(ctx context.Context, tx db.DBTX, k Kind, last uint64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO serial_counters (kind, last_value) VALUES (?, ?)`, string(k), last)
	return err
}

func (s *Store) setCounter(ctx context.Context, tx db.DBTX, k Kind, last uint64) error {
	res, err := tx.ExecContext(ctx, `UPDATE serial_counters SET last_value = ? WHERE kind = ?`, last, string(k))
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return errors.New("serial_counters: counter row vanished")
	}
	return nil
}

// raiseCounter は手入力のシリアルがカウンタを追い越した場合に追従させる
func (s *Store) raiseCounter(ctx context.Context, tx db.DBTX, k Kind, n uint64) error {
	const q = `UPDATE serial_counters SET last_value = GREATEST(last_value, ?) WHERE kind = ?`
	_, err := tx.ExecContext(ctx, q, n, string(k))
	return err
}
