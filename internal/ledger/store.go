package ledger

import (
	"context"
)

// Store persists accounts and ledger transactions.
type Store interface {
	// CreateAccount creates a new account
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccount retrieves an account by id
	GetAccount(ctx context.Context, id string) (*Account, error)

	// AdjustBalance applies delta to the account balance atomically and
	// returns the balance after. Negative deltas are guarded by the current
	// balance and fail with ErrInsufficientPoints; positive deltas create
	// the account on first touch so business accounts need no provisioning.
	AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error)

	// FindTransaction retrieves the transaction for an idempotency key, or
	// nil when none exists.
	FindTransaction(ctx context.Context, accountID, referenceID string, txType TransactionType) (*Transaction, error)

	// InsertTransaction appends a ledger entry. Returns ErrAlreadyExists
	// when the (account, reference, type) idempotency key is taken.
	InsertTransaction(ctx context.Context, txn *Transaction) error

	// ListTransactions retrieves an account's ledger entries, newest first
	ListTransactions(ctx context.Context, accountID string) ([]*Transaction, error)
}
