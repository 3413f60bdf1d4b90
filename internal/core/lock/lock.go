// Package lock provides named, time-bounded mutual-exclusion leases for
// account ids. Transfers touching the same account serialize here;
// transfers on disjoint accounts run in parallel.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrBusy means the lease could not be acquired within the wait timeout.
// Nothing was mutated; the caller may retry with backoff.
var ErrBusy = errors.New("resource busy: lock wait timed out")

// Lease is a held lock. Release must be called on every exit path.
type Lease interface {
	Release(ctx context.Context) error
}

// Manager hands out leases keyed by resource name. Implementations must
// bound the wait to acquire and auto-expire held leases so a crashed
// holder cannot wedge the key forever.
type Manager interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// AccountKey is the lease key for an account id. Ids are zero-padded so
// the lexical key order matches ascending numeric id.
func AccountKey(accountID int64) string {
	return fmt.Sprintf("lock:account:%012d", accountID)
}

// AcquireOrdered takes leases for all keys in ascending key order,
// deduplicating first. Every transfer uses this, so two transfers
// sharing accounts always lock in the same order and cannot deadlock.
// On any failure the already-held leases are released before returning.
func AcquireOrdered(ctx context.Context, m Manager, keys ...string) ([]Lease, error) {
	uniq := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, seen := uniq[k]; seen {
			continue
		}
		uniq[k] = struct{}{}
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	leases := make([]Lease, 0, len(ordered))
	for _, k := range ordered {
		lease, err := m.Acquire(ctx, k)
		if err != nil {
			ReleaseAll(ctx, leases)
			return nil, err
		}
		leases = append(leases, lease)
	}
	return leases, nil
}

// ReleaseAll releases in reverse acquisition order. Errors are swallowed:
// leases auto-expire, and a failed release must not mask the real result.
func ReleaseAll(ctx context.Context, leases []Lease) {
	for i := len(leases) - 1; i >= 0; i-- {
		_ = leases[i].Release(ctx)
	}
}
