package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, phone, password_hash, pin_hash, COALESCE(totp_key, ''), created_at`

// GetByID returns (nil, nil) when no such user exists.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByPhone returns (nil, nil) when no such user exists.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.PinHash, &u.TOTPKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
