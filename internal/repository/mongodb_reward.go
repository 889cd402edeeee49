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

// mongodbRewardRepository implements RewardRepository using MongoDB
type mongodbRewardRepository struct {
	collection *mongo.Collection
}

// NewRewardRepository creates a new MongoDB-based reward repository
func NewRewardRepository(db *mongo.Database) RewardRepository {
	return &mongodbRewardRepository{
		collection: db.Collection(database.CollRewards),
	}
}

func (r *mongodbRewardRepository) Create(ctx context.Context, reward *model.Reward) error {
	_, err := r.collection.InsertOne(ctx, reward)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.ErrAlreadyExists
		}
		return ierr.WithError(err).WithMessage("failed to insert reward").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbRewardRepository) Get(ctx context.Context, id string) (*model.Reward, error) {
	var reward model.Reward
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reward)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to load reward").Mark(ierr.ErrDatabase)
	}

	return &reward, nil
}

func (r *mongodbRewardRepository) ListByBusiness(ctx context.Context, businessID string) ([]*model.Reward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"business_id": businessID}, opts)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to list rewards").Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var rewards []*model.Reward
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to decode rewards").Mark(ierr.ErrDatabase)
	}

	return rewards, nil
}

// IncrementClaimed only matches while claimed < total_available, so the
// counter cannot overshoot even under concurrent redemptions.
func (r *mongodbRewardRepository) IncrementClaimed(ctx context.Context, id string) error {
	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":   id,
			"$expr": bson.M{"$lt": bson.A{"$claimed", "$total_available"}},
		},
		bson.M{
			"$inc": bson.M{"claimed": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return ierr.ErrSoldOut
		}
		return ierr.WithError(result.Err()).WithMessage("failed to increment claimed").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbRewardRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return ierr.WithError(err).WithMessage("failed to update reward").Mark(ierr.ErrDatabase)
	}
	if result.MatchedCount == 0 {
		return ierr.ErrNotFound
	}

	return nil
}
