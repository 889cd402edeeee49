package repository

import (
	"context"

	"reward-system/internal/model"
)

// RewardRepository defines the interface for reward catalog operations
type RewardRepository interface {
	// Create creates a new reward
	Create(ctx context.Context, reward *model.Reward) error

	// Get retrieves a reward by its id
	Get(ctx context.Context, id string) (*model.Reward, error)

	// ListByBusiness retrieves all rewards owned by a business
	ListByBusiness(ctx context.Context, businessID string) ([]*model.Reward, error)

	// IncrementClaimed atomically increments the claimed counter, guarded so
	// it never passes total_available. Returns ErrSoldOut when exhausted.
	// Callers skip this for unlimited rewards.
	IncrementClaimed(ctx context.Context, id string) error

	// SetActive activates or deactivates a reward
	SetActive(ctx context.Context, id string, active bool) error
}
