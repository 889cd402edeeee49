package repository

import (
	"context"

	"reward-system/internal/model"
)

// OfferRepository defines the interface for special offer operations
type OfferRepository interface {
	// Create creates a new special offer
	Create(ctx context.Context, offer *model.SpecialOffer) error

	// Get retrieves an offer by its id
	Get(ctx context.Context, id string) (*model.SpecialOffer, error)

	// GetByCode retrieves an offer by its normalized code
	GetByCode(ctx context.Context, code string) (*model.SpecialOffer, error)

	// IncrementRedeemed atomically increments the global redemption counter,
	// guarded by max_redemptions. Returns ErrSoldOut when the cap is hit.
	IncrementRedeemed(ctx context.Context, id string) error

	// CountForAccount counts how many times an account redeemed an offer
	CountForAccount(ctx context.Context, offerID, accountID string) (int64, error)

	// RecordRedemption records one account redeeming an offer
	RecordRedemption(ctx context.Context, redemption *model.OfferRedemption) error
}
