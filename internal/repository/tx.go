package repository

import (
	"context"
)

// TxRunner executes a function atomically against the store. The context
// passed to fn carries the transaction; repository calls made with it join
// the same transaction. If fn returns an error the transaction is aborted.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
