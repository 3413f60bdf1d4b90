// Package engine implements the funds-transfer procedure: authorize,
// lock, validate, commit. One entry point, Submit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/lock"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/security"
)

// commitAttempts bounds the retry loop around the atomic commit.
const commitAttempts = 3

// AccountStore is the slice of storage the engine reads accounts from.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
}

// Ledger applies transfers and appends entries. ApplyTransfer must
// re-read the source balance inside its own transaction, mutate both
// balances, and insert the entry as one atomic unit, returning
// domain.ErrInsufficientBalance if the re-read balance cannot cover the
// amount.
type Ledger interface {
	ApplyTransfer(ctx context.Context, entry *domain.Transaction) error
	RecordFailed(ctx context.Context, entry *domain.Transaction) error
}

// Engine orchestrates one transfer at a time per call. Safe for
// concurrent use; all shared state lives behind the lock manager and
// the store.
type Engine struct {
	Accounts AccountStore
	Ledger   Ledger
	Locks    lock.Manager
}

func New(accounts AccountStore, ledger Ledger, locks lock.Manager) *Engine {
	return &Engine{Accounts: accounts, Ledger: ledger, Locks: locks}
}

// Submit runs the full transfer state machine for an authenticated
// principal. On success both balances are mutated and exactly one
// success entry is appended, all atomically. On any failure before the
// commit, balances are untouched.
func (e *Engine) Submit(ctx context.Context, p *auth.Principal, req *domain.TransferRequest) (*domain.Transaction, error) {
	// Received -> Authorized
	if err := p.RequireScope(auth.ScopeTransfer); err != nil {
		return nil, err
	}
	if !security.CheckSecret(p.User.PinHash, req.Pin) {
		return nil, domain.ErrIncorrectPin
	}
	// Second factor is opt-in per user: only checked when registered.
	if p.User.TOTPKey != "" && !security.ValidateTOTP(p.User.TOTPKey, req.OneTimeCode) {
		return nil, domain.ErrInvalidSecondFactor
	}

	// Authorized -> Locked
	if req.FromAccountID == req.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	from, err := e.Accounts.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, fmt.Errorf("load source account: %w", err)
	}
	to, err := e.Accounts.GetByID(ctx, req.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("load destination account: %w", err)
	}
	if from == nil || to == nil {
		return nil, domain.ErrInvalidAccountRef
	}
	// Only source ownership is checked; anyone may be a destination.
	if from.UserID != p.User.ID {
		return nil, domain.ErrNotAccountOwner
	}

	// Don't take leases for an already-abandoned request.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leases, err := lock.AcquireOrdered(ctx, e.Locks,
		lock.AccountKey(from.ID), lock.AccountKey(to.ID))
	if err != nil {
		return nil, err
	}
	defer lock.ReleaseAll(ctx, leases)

	entry := &domain.Transaction{
		ID:            uuid.New(),
		FromAccountID: &from.ID,
		ToAccountID:   &to.ID,
		Amount:        req.Amount,
		Description:   req.Description,
		Status:        domain.TxSuccess,
		TrustedAppID:  p.DelegatingAppID,
		CreatedAt:     time.Now(),
	}

	// Locked -> Validated -> Committed. ApplyTransfer re-reads the
	// source balance under the database row lock, so a value cached
	// before lease acquisition can never be trusted by mistake.
	var commitErr error
	for attempt := 1; attempt <= commitAttempts; attempt++ {
		commitErr = e.Ledger.ApplyTransfer(ctx, entry)
		if commitErr == nil {
			return entry, nil
		}
		if errors.Is(commitErr, domain.ErrInsufficientBalance) {
			e.recordFailure(ctx, entry)
			return nil, domain.ErrInsufficientBalance
		}
		slog.Warn("transfer commit failed, retrying",
			"attempt", attempt, "transaction_id", entry.ID, "error", commitErr)
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, commitErr)
}

// recordFailure appends a failed entry for audit completeness. A miss
// here is logged, not surfaced: the transfer outcome is already decided.
func (e *Engine) recordFailure(ctx context.Context, entry *domain.Transaction) {
	failed := *entry
	failed.Status = domain.TxFailed
	if err := e.Ledger.RecordFailed(ctx, &failed); err != nil {
		slog.Error("failed to record rejected transfer", "transaction_id", entry.ID, "error", err)
	}
}
