package auth

import "github.com/Deadlock-JunctionX/LockMoney/internal/core/domain"

// Principal is the authenticated identity for one request. It is built
// from a verified token, lives for the request, and is never persisted.
type Principal struct {
	User            *domain.User
	Grant           ScopeGrant
	DelegatingAppID *int64
}

// Delegated reports whether this principal came from an impersonation
// token minted by a trusted app.
func (p *Principal) Delegated() bool {
	return p.DelegatingAppID != nil
}

// RequireScope is the authorization gate applied before any guarded
// operation. It returns domain.ErrInsufficientScope when the grant does
// not cover the required capability.
func (p *Principal) RequireScope(required string) error {
	if !p.Grant.Permits(required) {
		return domain.ErrInsufficientScope
	}
	return nil
}
