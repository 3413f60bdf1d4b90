package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/lock"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/security"
)

// fakeStore backs both the AccountStore and Ledger interfaces with an
// in-memory table, mimicking the atomic commit the real repository does
// in one database transaction.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	entries  []*domain.Transaction

	// transientFailures makes ApplyTransfer fail this many times before
	// succeeding, to exercise the commit retry loop.
	transientFailures int
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (s *fakeStore) ApplyTransfer(_ context.Context, entry *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transientFailures > 0 {
		s.transientFailures--
		return errors.New("write conflict")
	}

	from := s.accounts[*entry.FromAccountID]
	if from.Balance < entry.Amount {
		return domain.ErrInsufficientBalance
	}
	from.Balance -= entry.Amount
	s.accounts[*entry.ToAccountID].Balance += entry.Amount
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeStore) RecordFailed(_ context.Context, entry *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeStore) balance(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

func (s *fakeStore) entriesByStatus(status domain.TxStatus) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, e := range s.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

var (
	testPinHash  string
	testHashOnce sync.Once
)

func pinHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		h, err := security.HashSecret("123456")
		require.NoError(t, err)
		testPinHash = h
	})
	return testPinHash
}

func principalFor(t *testing.T, userID int64, totpKey string) *auth.Principal {
	t.Helper()
	return &auth.Principal{
		User:  &domain.User{ID: userID, PinHash: pinHash(t), TOTPKey: totpKey},
		Grant: auth.AllScopes(),
	}
}

func newTestEngine(accounts map[int64]*domain.Account) (*Engine, *fakeStore) {
	store := &fakeStore{accounts: accounts}
	locks := lock.NewMemoryManager(2 * time.Second)
	return New(store, store, locks), store
}

func twoAccounts() map[int64]*domain.Account {
	return map[int64]*domain.Account{
		1: {ID: 1, UserID: 10, Type: domain.AccountNative, Balance: 1_000_000, InitialBalance: 1_000_000},
		2: {ID: 2, UserID: 20, Type: domain.AccountNative, Balance: 200_000, InitialBalance: 200_000},
	}
}

func TestSubmitMovesMoneyAndRecordsEntry(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(twoAccounts())

	entry, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 100_000,
		Description: "lunch", Pin: "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(900_000), store.balance(1))
	assert.Equal(t, int64(300_000), store.balance(2))

	success := store.entriesByStatus(domain.TxSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, entry.ID, success[0].ID)
	assert.Equal(t, int64(100_000), success[0].Amount)
	assert.Equal(t, int64(1), *success[0].FromAccountID)
	assert.Equal(t, int64(2), *success[0].ToAccountID)
	assert.Nil(t, success[0].TrustedAppID)
}

func TestSubmitInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(map[int64]*domain.Account{
		1: {ID: 1, UserID: 10, Balance: 100_000},
		2: {ID: 2, UserID: 20, Balance: 0},
	})

	_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 500_000, Pin: "123456",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Balances untouched, one failed entry for the audit trail.
	assert.Equal(t, int64(100_000), store.balance(1))
	assert.Equal(t, int64(0), store.balance(2))
	assert.Empty(t, store.entriesByStatus(domain.TxSuccess))
	assert.Len(t, store.entriesByStatus(domain.TxFailed), 1)
}

func TestSubmitAuthorizationGates(t *testing.T) {
	ctx := context.Background()

	t.Run("missing scope", func(t *testing.T) {
		e, store := newTestEngine(twoAccounts())
		p := principalFor(t, 10, "")
		p.Grant = auth.Scopes(auth.ScopeReadOwnAccounts)

		_, err := e.Submit(ctx, p, &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "123456",
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientScope)
		assert.Empty(t, store.entries)
	})

	t.Run("wrong pin", func(t *testing.T) {
		e, store := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "999999",
		})
		assert.ErrorIs(t, err, domain.ErrIncorrectPin)
		assert.Equal(t, int64(1_000_000), store.balance(1))
	})

	t.Run("wrong one-time code when second factor registered", func(t *testing.T) {
		e, store := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, "XDTK6E22TYLGHN2CJLF232H2UWRWXWG7"), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "123456", OneTimeCode: "000000",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidSecondFactor)
		assert.Equal(t, int64(1_000_000), store.balance(1))
		assert.Empty(t, store.entries)
	})

	t.Run("no second factor registered skips the check", func(t *testing.T) {
		e, _ := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "123456",
		})
		assert.NoError(t, err)
	})
}

func TestSubmitValidationGates(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown accounts", func(t *testing.T) {
		e, _ := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 99, ToAccountID: 2, Amount: 1, Pin: "123456",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAccountRef)

		_, err = e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 99, Amount: 1, Pin: "123456",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAccountRef)
	})

	t.Run("source must belong to the caller", func(t *testing.T) {
		e, _ := newTestEngine(twoAccounts())

		// User 20 trying to spend from user 10's account.
		_, err := e.Submit(ctx, principalFor(t, 20, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "123456",
		})
		assert.ErrorIs(t, err, domain.ErrNotAccountOwner)
	})

	t.Run("destination ownership is never checked", func(t *testing.T) {
		e, _ := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 2, Amount: 1, Pin: "123456",
		})
		assert.NoError(t, err)
	})

	t.Run("same account rejected", func(t *testing.T) {
		e, store := newTestEngine(twoAccounts())

		_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
			FromAccountID: 1, ToAccountID: 1, Amount: 1, Pin: "123456",
		})
		assert.ErrorIs(t, err, domain.ErrSameAccount)
		assert.Empty(t, store.entries)
	})
}

func TestSubmitDelegationProvenance(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(twoAccounts())

	appID := int64(7)
	p := principalFor(t, 10, "")
	p.Grant = auth.Scopes(auth.ScopeTransfer, auth.ScopeReadOwnAccounts)
	p.DelegatingAppID = &appID

	entry, err := e.Submit(ctx, p, &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 50_000, Pin: "123456",
	})
	require.NoError(t, err)
	require.NotNil(t, entry.TrustedAppID)
	assert.Equal(t, appID, *entry.TrustedAppID)

	success := store.entriesByStatus(domain.TxSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, appID, *success[0].TrustedAppID)
}

func TestSubmitRetriesTransientCommitFailures(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(twoAccounts())
	store.transientFailures = 2

	_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 100_000, Pin: "123456",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(900_000), store.balance(1))
}

func TestSubmitSurfacesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(twoAccounts())
	store.transientFailures = 100

	_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 100_000, Pin: "123456",
	})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, int64(1_000_000), store.balance(1))
	assert.Equal(t, int64(200_000), store.balance(2))
}

func TestSubmitAbandonedRequestTakesNoLocks(t *testing.T) {
	e, store := newTestEngine(twoAccounts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Submit(ctx, principalFor(t, 10, ""), &domain.TransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: 100_000, Pin: "123456",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1_000_000), store.balance(1))

	// Both locks must still be free.
	leases, err := lock.AcquireOrdered(context.Background(), e.Locks,
		lock.AccountKey(1), lock.AccountKey(2))
	require.NoError(t, err)
	lock.ReleaseAll(context.Background(), leases)
}

// Opposite-direction transfers over the same pair must both complete:
// identical lock ordering on both sides means no deadlock, and the
// total money in the system is conserved.
func TestSubmitConcurrentOppositeTransfers(t *testing.T) {
	ctx := context.Background()
	accounts := map[int64]*domain.Account{
		1: {ID: 1, UserID: 10, Balance: 1_000_000},
		2: {ID: 2, UserID: 20, Balance: 1_000_000},
	}
	e, store := newTestEngine(accounts)

	const rounds = 20
	var wg sync.WaitGroup
	wg.Add(2)

	submit := func(p *auth.Principal, from, to int64) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := e.Submit(ctx, p, &domain.TransferRequest{
				FromAccountID: from, ToAccountID: to, Amount: 1_000, Pin: "123456",
			})
			assert.NoError(t, err)
		}
	}

	go submit(principalFor(t, 10, ""), 1, 2)
	go submit(principalFor(t, 20, ""), 2, 1)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("deadlock: concurrent opposite transfers never completed")
	}

	// Equal traffic both ways: balances end where they started, and
	// every attempt committed exactly one success entry.
	assert.Equal(t, int64(1_000_000), store.balance(1))
	assert.Equal(t, int64(1_000_000), store.balance(2))
	assert.Len(t, store.entriesByStatus(domain.TxSuccess), 2*rounds)
	assert.GreaterOrEqual(t, store.balance(1), int64(0))
	assert.GreaterOrEqual(t, store.balance(2), int64(0))
}
