package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

type TrustedAppRepository struct {
	db *pgxpool.Pool
}

func NewTrustedAppRepository(db *pgxpool.Pool) *TrustedAppRepository {
	return &TrustedAppRepository{db: db}
}

// GetByID returns (nil, nil) when no such app is registered.
func (r *TrustedAppRepository) GetByID(ctx context.Context, id int64) (*domain.TrustedApp, error) {
	var app domain.TrustedApp
	err := r.db.QueryRow(ctx,
		`SELECT id, name, secret_key_hash, created_at FROM trusted_apps WHERE id = $1`, id).
		Scan(&app.ID, &app.Name, &app.SecretKeyHash, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query trusted app: %w", err)
	}
	return &app, nil
}
