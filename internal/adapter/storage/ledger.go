package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ApplyTransfer commits one transfer as a single database transaction:
// re-read the source balance under a row lock, debit, credit, append the
// ledger entry, and queue the notification. Either everything lands or
// nothing does. Returns domain.ErrInsufficientBalance when the re-read
// balance cannot cover the amount.
func (r *LedgerRepository) ApplyTransfer(ctx context.Context, entry *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`,
		entry.FromAccountID).Scan(&balance)
	if err != nil {
		return fmt.Errorf("read source balance: %w", err)
	}

	if balance < entry.Amount {
		return domain.ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2`,
		entry.Amount, entry.FromAccountID); err != nil {
		return fmt.Errorf("debit source: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
		entry.Amount, entry.ToAccountID); err != nil {
		return fmt.Errorf("credit destination: %w", err)
	}

	if err := insertEntry(ctx, tx, entry); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO webhook_jobs (id, transaction_id, status, attempts, next_run_at)
		VALUES ($1, $2, 'PENDING', 0, NOW())`,
		uuid.New(), entry.ID); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}

	return tx.Commit(ctx)
}

// RecordFailed appends a failed entry outside any balance mutation.
func (r *LedgerRepository) RecordFailed(ctx context.Context, entry *domain.Transaction) error {
	return insertEntry(ctx, r.db, entry)
}

// execer covers both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertEntry(ctx context.Context, db execer, entry *domain.Transaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO transactions (id, from_account_id, to_account_id, amount, description, status, trusted_app_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.FromAccountID, entry.ToAccountID, entry.Amount,
		entry.Description, entry.Status, entry.TrustedAppID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// History fetches the most recent entries touching an account.
func (r *LedgerRepository) History(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, from_account_id, to_account_id, amount, description, status, trusted_app_id, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount,
			&t.Description, &t.Status, &t.TrustedAppID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, &t)
	}
	return history, rows.Err()
}
