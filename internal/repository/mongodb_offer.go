package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reward-system/internal/model"
	"reward-system/pkg/database"
	ierr "reward-system/pkg/errors"
)

// mongodbOfferRepository implements OfferRepository using MongoDB
type mongodbOfferRepository struct {
	offers      *mongo.Collection
	redemptions *mongo.Collection
}

// NewOfferRepository creates a new MongoDB-based offer repository
func NewOfferRepository(db *mongo.Database) OfferRepository {
	return &mongodbOfferRepository{
		offers:      db.Collection(database.CollSpecialOffers),
		redemptions: db.Collection(database.CollOfferRedemptions),
	}
}

func (r *mongodbOfferRepository) Create(ctx context.Context, offer *model.SpecialOffer) error {
	_, err := r.offers.InsertOne(ctx, offer)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.ErrAlreadyExists
		}
		return ierr.WithError(err).WithMessage("failed to insert offer").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbOfferRepository) Get(ctx context.Context, id string) (*model.SpecialOffer, error) {
	var offer model.SpecialOffer
	err := r.offers.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to load offer").Mark(ierr.ErrDatabase)
	}

	return &offer, nil
}

func (r *mongodbOfferRepository) GetByCode(ctx context.Context, code string) (*model.SpecialOffer, error) {
	var offer model.SpecialOffer
	err := r.offers.FindOne(ctx, bson.M{"code": code}).Decode(&offer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.ErrNotFound
		}
		return nil, ierr.WithError(err).WithMessage("failed to look up offer code").Mark(ierr.ErrDatabase)
	}

	return &offer, nil
}

// IncrementRedeemed enforces the global cap with a guarded update; offers
// with max_redemptions == 0 are uncapped.
func (r *mongodbOfferRepository) IncrementRedeemed(ctx context.Context, id string) error {
	result := r.offers.FindOneAndUpdate(
		ctx,
		bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"max_redemptions": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$redeemed_count", "$max_redemptions"}}},
			},
		},
		bson.M{"$inc": bson.M{"redeemed_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return ierr.ErrSoldOut
		}
		return ierr.WithError(result.Err()).WithMessage("failed to increment offer redemptions").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbOfferRepository) CountForAccount(ctx context.Context, offerID, accountID string) (int64, error) {
	count, err := r.redemptions.CountDocuments(ctx, bson.M{
		"offer_id":   offerID,
		"account_id": accountID,
	})
	if err != nil {
		return 0, ierr.WithError(err).WithMessage("failed to count offer redemptions").Mark(ierr.ErrDatabase)
	}

	return count, nil
}

func (r *mongodbOfferRepository) RecordRedemption(ctx context.Context, redemption *model.OfferRedemption) error {
	_, err := r.redemptions.InsertOne(ctx, redemption)
	if err != nil {
		return ierr.WithError(err).WithMessage("failed to record offer redemption").Mark(ierr.ErrDatabase)
	}

	return nil
}
