package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

// 見つからなければ (nil, nil)
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT username, password_hash, role, is_active, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO users (username, password_hash, role, is_active)
VALUES (?, ?, ?, ?)
`
	_, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Role, u.IsActive)
	return err
}

func (s *Store) Update(ctx context.Context, u *User) (int64, error) {
	const q = `UPDATE users SET password_hash = ?, role = ?, is_active = ? WHERE username = ?`
	res, err := s.db.ExecContext(ctx, q, u.PasswordHash, u.Role, u.IsActive, u.Username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
