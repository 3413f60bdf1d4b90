package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType says where the money actually lives.
type AccountType string

const (
	// AccountNative is a wallet balance held inside this system.
	AccountNative AccountType = "NATIVE"
	// AccountBank is a linked external bank account. We only keep an
	// opaque descriptor for it; a transfer to it leaves the system.
	AccountBank AccountType = "BANK_ACCOUNT"
	// AccountCard is a linked bank card, same rules as AccountBank.
	AccountCard AccountType = "BANK_CARD"
)

// TxStatus is the outcome recorded on a ledger entry.
type TxStatus string

const (
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
	TxPending TxStatus = "pending"
)

// User is an end user who can log in and own accounts.
// TOTPKey is empty when the user never registered a second factor.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	PinHash      string    `json:"-"`
	TOTPKey      string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account holds a balance in minor currency units (never negative).
// InitialBalance is the audit baseline and never changes after creation.
type Account struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Type           AccountType `json:"type"`
	BankID         *int64      `json:"bank_id,omitempty"`
	BankAccountNum string      `json:"bank_account_number,omitempty"`
	Priority       int         `json:"priority"`
	Balance        int64       `json:"balance"`
	InitialBalance int64       `json:"initial_balance"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Transaction is one immutable ledger entry: a transfer attempt and its
// outcome. TrustedAppID is set only when the transfer was authorized
// through an impersonation token minted by that app.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	FromAccountID *int64    `json:"from_account_id"`
	ToAccountID   *int64    `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	Status        TxStatus  `json:"status"`
	TrustedAppID  *int64    `json:"trusted_app_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TrustedApp is a machine principal. It authenticates with a static
// secret and may mint short-lived impersonation tokens for users.
type TrustedApp struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SecretKeyHash string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferRequest is a parsed, not-yet-authorized transfer submission.
// Amount must already be validated as > 0 by the transport layer.
type TransferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	Pin           string `json:"pin"`
	OneTimeCode   string `json:"one_time_code"`
}
