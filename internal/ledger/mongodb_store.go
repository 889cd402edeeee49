package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reward-system/pkg/database"
	ierr "reward-system/pkg/errors"
)

// mongodbStore implements Store using MongoDB
type mongodbStore struct {
	accounts     *mongo.Collection
	transactions *mongo.Collection
}

// NewMongoStore creates a new MongoDB-based ledger store
func NewMongoStore(db *mongo.Database) Store {
	return &mongodbStore{
		accounts:     db.Collection(database.CollAccounts),
		transactions: db.Collection(database.CollLedger),
	}
}

func (s *mongodbStore) CreateAccount(ctx context.Context, account *Account) error {
	_, err := s.accounts.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.ErrAlreadyExists
		}
		return ierr.WithError(err).WithMessage("failed to insert account").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (s *mongodbStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to load account").Mark(ierr.ErrDatabase)
	}

	return &account, nil
}

func (s *mongodbStore) AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error) {
	now := time.Now()
	filter := bson.M{"_id": accountID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if delta < 0 {
		// Guarded decrement: only matches while the balance covers it.
		filter["point_balance"] = bson.M{"$gte": -delta}
	} else {
		// Credits create the account on first touch.
		opts = opts.SetUpsert(true)
	}

	result := s.accounts.FindOneAndUpdate(
		ctx,
		filter,
		bson.M{
			"$inc":         bson.M{"point_balance": delta},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		opts,
	)

	var account Account
	if err := result.Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish a missing account from an uncovered debit.
			if _, getErr := s.GetAccount(ctx, accountID); getErr != nil {
				return 0, getErr
			}
			return 0, ierr.ErrInsufficientPoints
		}
		return 0, ierr.WithError(err).WithMessage("failed to adjust balance").Mark(ierr.ErrDatabase)
	}

	return account.PointBalance, nil
}

func (s *mongodbStore) FindTransaction(ctx context.Context, accountID, referenceID string, txType TransactionType) (*Transaction, error) {
	var txn Transaction
	err := s.transactions.FindOne(ctx, bson.M{
		"account_id":   accountID,
		"reference_id": referenceID,
		"type":         txType,
	}).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, ierr.WithError(err).WithMessage("failed to look up ledger transaction").Mark(ierr.ErrDatabase)
	}

	return &txn, nil
}

func (s *mongodbStore) InsertTransaction(ctx context.Context, txn *Transaction) error {
	_, err := s.transactions.InsertOne(ctx, txn)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.ErrAlreadyExists
		}
		return ierr.WithError(err).WithMessage("failed to insert ledger transaction").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (s *mongodbStore) ListTransactions(ctx context.Context, accountID string) ([]*Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.transactions.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to list ledger transactions").Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var txns []*Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to decode ledger transactions").Mark(ierr.ErrDatabase)
	}

	return txns, nil
}
