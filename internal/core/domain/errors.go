package domain

import "errors"

// Auth errors. Terminal for the request, never retried automatically.
var (
	// ErrInvalidToken means the bearer token is absent, malformed,
	// expired, or fails signature verification.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUnknownPrincipal means the token was valid but the user it
	// names no longer exists.
	ErrUnknownPrincipal = errors.New("unknown principal")

	// ErrInsufficientScope means the token does not grant the
	// capability the operation requires.
	ErrInsufficientScope = errors.New("insufficient scope")

	// ErrInvalidCredentials covers bad phone/password logins and bad
	// trusted-app secrets.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Validation errors. The caller must resubmit with corrected input.
var (
	// ErrInvalidAccountRef means a referenced account does not exist.
	ErrInvalidAccountRef = errors.New("account not found")

	// ErrNotAccountOwner means the source account belongs to someone
	// other than the authorized user.
	ErrNotAccountOwner = errors.New("not the account owner")

	// ErrIncorrectPin means the supplied PIN does not match.
	ErrIncorrectPin = errors.New("incorrect pin")

	// ErrInvalidSecondFactor means the user has a registered second
	// factor and the supplied one-time code is wrong or missing.
	ErrInvalidSecondFactor = errors.New("invalid one-time code")

	// ErrInsufficientBalance means the source balance cannot cover the
	// requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSameAccount means source and destination are the same account.
	ErrSameAccount = errors.New("source and destination are the same account")
)

// ErrPersistence means the atomic commit kept failing after retries.
// No partial state is left behind when this is returned.
var ErrPersistence = errors.New("persistence failure")
