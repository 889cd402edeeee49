package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names for the redemption core.
const (
	CollRewards          = "rewards"
	CollRedemptions      = "redemptions"
	CollValidationAudit  = "validation_audit"
	CollSpecialOffers    = "special_offers"
	CollOfferRedemptions = "offer_redemptions"
	CollAccounts         = "accounts"
	CollLedger           = "ledger_transactions"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a connection to MongoDB
func Connect(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	clientOptions := options.Client().ApplyURI(uri)

	// Set connection timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)

	mongoDB := &MongoDB{
		Client:   client,
		Database: db,
	}

	// Create indexes
	if err := mongoDB.CreateIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongoDB, nil
}

// CreateIndexes creates all necessary indexes for the application
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	// Rewards are listed per business
	rewards := m.Database.Collection(CollRewards)
	if _, err := rewards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("reward_business_created"),
	}); err != nil {
		return fmt.Errorf("failed to create reward business index: %w", err)
	}

	// Codes are unique per business, not globally. Sparse because each
	// redemption carries exactly one of the two code kinds.
	redemptions := m.Database.Collection(CollRedemptions)
	codeIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "qr_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("redemption_business_qr_code_unique"),
		},
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "alphanumeric_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("redemption_business_alnum_code_unique"),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("redemption_account_business_created"),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "reward_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("redemption_account_reward_created"),
		},
	}
	if _, err := redemptions.Indexes().CreateMany(ctx, codeIndexes); err != nil {
		return fmt.Errorf("failed to create redemption indexes: %w", err)
	}

	// Audit entries are queried per redemption and per business timeline
	audit := m.Database.Collection(CollValidationAudit)
	auditIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "redemption_id", Value: 1}},
			Options: options.Index().SetName("audit_redemption"),
		},
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("audit_business_created"),
		},
	}
	if _, err := audit.Indexes().CreateMany(ctx, auditIndexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}

	// Offer codes are looked up by exact code
	offers := m.Database.Collection(CollSpecialOffers)
	if _, err := offers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("offer_code_unique"),
	}); err != nil {
		return fmt.Errorf("failed to create offer code index: %w", err)
	}

	offerRedemptions := m.Database.Collection(CollOfferRedemptions)
	if _, err := offerRedemptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "offer_id", Value: 1}, {Key: "account_id", Value: 1}},
		Options: options.Index().SetName("offer_redemption_offer_account"),
	}); err != nil {
		return fmt.Errorf("failed to create offer redemption index: %w", err)
	}

	// Ledger idempotency: one transaction per (account, reference, type).
	// A retried debit or credit hits this index instead of re-applying.
	ledger := m.Database.Collection(CollLedger)
	if _, err := ledger.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "account_id", Value: 1},
			{Key: "reference_id", Value: 1},
			{Key: "type", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("ledger_account_reference_type_unique"),
	}); err != nil {
		return fmt.Errorf("failed to create ledger idempotency index: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
