package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, type, bank_id, COALESCE(bank_account_number, ''), priority, balance, initial_balance, created_at`

// GetByID returns (nil, nil) when no such account exists.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// ListByUser returns the user's accounts, highest priority first.
func (r *AccountRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY priority, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// LookupByPhone finds the destination account for a transfer: the
// highest-priority account of the user holding that phone number.
// Returns (nil, nil) when nothing matches. Read-only, no locking.
func (r *AccountRepository) LookupByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountQualified("a")+`
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.phone = $1
		ORDER BY a.priority, a.id
		LIMIT 1`, phone))
}

func accountQualified(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.type, ` + alias + `.bank_id, COALESCE(` + alias + `.bank_account_number, ''), ` + alias + `.priority, ` + alias + `.balance, ` + alias + `.initial_balance, ` + alias + `.created_at`
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Type, &acc.BankID, &acc.BankAccountNum,
		&acc.Priority, &acc.Balance, &acc.InitialBalance, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acc, nil
}
