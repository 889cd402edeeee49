package repository

import (
	"context"
	"time"

	"reward-system/internal/model"
)

// RedemptionRepository defines the interface for redemption data operations
type RedemptionRepository interface {
	// Create creates a new redemption record
	Create(ctx context.Context, redemption *model.Redemption) error

	// Get retrieves a redemption by its id
	Get(ctx context.Context, id string) (*model.Redemption, error)

	// FindByCode retrieves a redemption by exact code match scoped to a
	// business. Codes are not globally unique across businesses; the same
	// code string must never match another business's redemptions.
	FindByCode(ctx context.Context, businessID, code string) (*model.Redemption, error)

	// MarkValidated performs the authoritative compare-and-set: it flips
	// validated false -> true and records the validation metadata only if
	// the stored record still has validated == false. Exactly one caller
	// can win; losers get ErrAlreadyValidated.
	MarkValidated(ctx context.Context, id string, info model.ValidationInfo) error

	// TransitionStatus moves a still-unvalidated redemption between
	// lifecycle states (e.g. pending -> cancelled), guarded on the current
	// status so concurrent transitions cannot stack.
	TransitionStatus(ctx context.Context, id string, from, to model.RedemptionStatus) error

	// ListByAccount retrieves an account's redemptions, newest first
	ListByAccount(ctx context.Context, accountID string) ([]*model.Redemption, error)

	// CountSince counts an account's redemptions at one business created
	// at or after the given instant. Used by the rolling rate limit.
	CountSince(ctx context.Context, accountID, businessID string, since time.Time) (int64, error)

	// LastForReward retrieves the account's most recent redemption of a
	// specific reward, or nil when there is none. Cancelled redemptions do
	// not count against frequency policies.
	LastForReward(ctx context.Context, accountID, rewardID string) (*model.Redemption, error)
}
