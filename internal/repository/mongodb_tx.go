package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"reward-system/pkg/database"
)

// mongodbTxRunner implements TxRunner on top of the database UnitOfWork.
// The mongo.SessionContext is passed straight through as the fn context, so
// repository calls made with it join the session's transaction.
type mongodbTxRunner struct {
	uow *database.UnitOfWork
}

// NewTxRunner creates a MongoDB-backed transaction runner
func NewTxRunner(client *mongo.Client) TxRunner {
	return &mongodbTxRunner{
		uow: database.NewUnitOfWork(client),
	}
}

func (r *mongodbTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.uow.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		return fn(sc)
	})
}
