package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reward-system/internal/model"
	"reward-system/pkg/database"
	ierr "reward-system/pkg/errors"
)

// mongodbRedemptionRepository implements RedemptionRepository using MongoDB
type mongodbRedemptionRepository struct {
	collection *mongo.Collection
}

// NewRedemptionRepository creates a new MongoDB-based redemption repository
func NewRedemptionRepository(db *mongo.Database) RedemptionRepository {
	return &mongodbRedemptionRepository{
		collection: db.Collection(database.CollRedemptions),
	}
}

func (r *mongodbRedemptionRepository) Create(ctx context.Context, redemption *model.Redemption) error {
	_, err := r.collection.InsertOne(ctx, redemption)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.ErrAlreadyExists
		}
		return ierr.WithError(err).WithMessage("failed to insert redemption").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbRedemptionRepository) Get(ctx context.Context, id string) (*model.Redemption, error) {
	var redemption model.Redemption
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to load redemption").Mark(ierr.ErrDatabase)
	}

	return &redemption, nil
}

func (r *mongodbRedemptionRepository) FindByCode(ctx context.Context, businessID, code string) (*model.Redemption, error) {
	var redemption model.Redemption
	err := r.collection.FindOne(ctx, bson.M{
		"business_id": businessID,
		"$or": bson.A{
			bson.M{"qr_code": code},
			bson.M{"alphanumeric_code": code},
		},
	}).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to look up code").Mark(ierr.ErrDatabase)
	}

	return &redemption, nil
}

// MarkValidated is the linchpin compare-and-set. The filter only matches
// while validated is still false, so under concurrent validators exactly one
// update succeeds and the rest observe ErrAlreadyValidated.
func (r *mongodbRedemptionRepository) MarkValidated(ctx context.Context, id string, info model.ValidationInfo) error {
	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":       id,
			"validated": false,
			"status":    model.RedemptionPending,
		},
		bson.M{
			"$set": bson.M{
				"validated":  true,
				"validation": info,
				"status":     model.RedemptionUsed,
				"used_at":    info.ValidatedAt,
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return ierr.ErrAlreadyValidated
		}
		return ierr.WithError(result.Err()).WithMessage("failed to mark redemption validated").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbRedemptionRepository) TransitionStatus(ctx context.Context, id string, from, to model.RedemptionStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from, "validated": false},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return ierr.WithError(err).WithMessage("failed to transition redemption status").Mark(ierr.ErrDatabase)
	}
	if result.MatchedCount == 0 {
		return ierr.ErrNotFound
	}

	return nil
}

func (r *mongodbRedemptionRepository) ListByAccount(ctx context.Context, accountID string) ([]*model.Redemption, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to list redemptions").Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var redemptions []*model.Redemption
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to decode redemptions").Mark(ierr.ErrDatabase)
	}

	return redemptions, nil
}

func (r *mongodbRedemptionRepository) CountSince(ctx context.Context, accountID, businessID string, since time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"account_id":  accountID,
		"business_id": businessID,
		"status":      bson.M{"$ne": model.RedemptionCancelled},
		"created_at":  bson.M{"$gte": since},
	})
	if err != nil {
		return 0, ierr.WithError(err).WithMessage("failed to count redemptions").Mark(ierr.ErrDatabase)
	}

	return count, nil
}

func (r *mongodbRedemptionRepository) LastForReward(ctx context.Context, accountID, rewardID string) (*model.Redemption, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var redemption model.Redemption
	err := r.collection.FindOne(ctx, bson.M{
		"account_id": accountID,
		"reward_id":  rewardID,
		"status":     bson.M{"$ne": model.RedemptionCancelled},
	}, opts).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, ierr.WithError(err).WithMessage("failed to load last redemption").Mark(ierr.ErrDatabase)
	}

	return &redemption, nil
}
