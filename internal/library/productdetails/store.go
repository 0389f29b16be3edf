package productdetails

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// GET /product-details?all=1
func (s *Store) List(ctx context.Context, includeDisabled bool) ([]ProductDetail, error) {
	q := `
		SELECT id, code_from, code_to, category, is_disabled
		FROM product_details
	`
	if !includeDisabled {
		q += ` WHERE is_disabled = 0`
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]ProductDetail, 0, 8)
	for rows.Next() {
		var p ProductDetail
		if err := rows.Scan(&p.ID, &p.CodeFrom, &p.CodeTo, &p.Category, &p.IsDisabled); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetByID(ctx context.Context, id uint) (*ProductDetail, error) {
	const q = `
		SELECT id, code_from, code_to, category, is_disabled
		FROM product_details
		WHERE id = ?
	`
	var p ProductDetail
	err := s.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.CodeFrom, &p.CodeTo, &p.Category, &p.IsDisabled)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Create(ctx context.Context, p *ProductDetail) error {
	const q = `
		INSERT INTO product_details (code_from, code_to, category, is_disabled)
		VALUES (?, ?, ?, 0)
	`
	r, err := s.db.ExecContext(ctx, q, p.CodeFrom, p.CodeTo, p.Category)
	if err != nil {
		return err
	}
	lastID, err := r.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint(lastID)
	return nil
}

// 該当行が無ければ sql.ErrNoRows
func (s *Store) Update(ctx context.Context, p *ProductDetail) error {
	const q = `
		UPDATE product_details
		SET code_from = ?, code_to = ?, category = ?, is_disabled = ?
		WHERE id = ?
	`
	return affectOne(s.db.ExecContext(ctx, q, p.CodeFrom, p.CodeTo, p.Category, p.IsDisabled, p.ID))
}

// DELETE は is_disabled=1 にするだけ
func (s *Store) Disable(ctx context.Context, id uint) error {
	return affectOne(s.db.ExecContext(ctx, `UPDATE product_details SET is_disabled = 1 WHERE id = ?`, id))
}

func affectOne(r sql.Result, err error) error {
	if err != nil {
		return err
	}
	aff, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
