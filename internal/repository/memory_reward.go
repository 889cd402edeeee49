package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"reward-system/internal/model"
	ierr "reward-system/pkg/errors"
)

// MemoryRewardRepository is an in-memory RewardRepository for tests.
type MemoryRewardRepository struct {
	mu      sync.RWMutex
	rewards map[string]*model.Reward
}

// NewMemoryRewardRepository creates an in-memory reward repository
func NewMemoryRewardRepository() *MemoryRewardRepository {
	return &MemoryRewardRepository{
		rewards: make(map[string]*model.Reward),
	}
}

func (r *MemoryRewardRepository) Create(_ context.Context, reward *model.Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rewards[reward.ID]; ok {
		return ierr.ErrAlreadyExists
	}
	clone := *reward
	r.rewards[reward.ID] = &clone

	return nil
}

func (r *MemoryRewardRepository) Get(_ context.Context, id string) (*model.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reward, ok := r.rewards[id]
	if !ok {
		return nil, ierr.ErrNotFound
	}
	clone := *reward

	return &clone, nil
}

func (r *MemoryRewardRepository) ListByBusiness(_ context.Context, businessID string) ([]*model.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rewards []*model.Reward
	for _, reward := range r.rewards {
		if reward.BusinessID == businessID {
			clone := *reward
			rewards = append(rewards, &clone)
		}
	}
	sort.Slice(rewards, func(i, j int) bool {
		return rewards[i].CreatedAt.After(rewards[j].CreatedAt)
	})

	return rewards, nil
}

func (r *MemoryRewardRepository) IncrementClaimed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return ierr.ErrNotFound
	}
	if reward.Claimed >= reward.TotalAvailable {
		return ierr.ErrSoldOut
	}
	reward.Claimed++
	reward.UpdatedAt = time.Now()

	return nil
}

func (r *MemoryRewardRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return ierr.ErrNotFound
	}
	reward.Active = active
	reward.UpdatedAt = time.Now()

	return nil
}
