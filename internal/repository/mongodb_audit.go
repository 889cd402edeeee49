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

// mongodbAuditRepository implements AuditRepository using MongoDB
type mongodbAuditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository creates a new MongoDB-based audit repository
func NewAuditRepository(db *mongo.Database) AuditRepository {
	return &mongodbAuditRepository{
		collection: db.Collection(database.CollValidationAudit),
	}
}

func (r *mongodbAuditRepository) Append(ctx context.Context, entry *model.ValidationAudit) error {
	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return ierr.WithError(err).WithMessage("failed to append audit entry").Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *mongodbAuditRepository) ListByRedemption(ctx context.Context, redemptionID string) ([]*model.ValidationAudit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"redemption_id": redemptionID}, opts)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to list audit entries").Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var entries []*model.ValidationAudit
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to decode audit entries").Mark(ierr.ErrDatabase)
	}

	return entries, nil
}
