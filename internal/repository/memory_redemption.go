package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"reward-system/internal/model"
	ierr "reward-system/pkg/errors"
)

// MemoryRedemptionRepository is an in-memory RedemptionRepository for tests.
// It counts lookups so tests can assert that the structural format gate
// rejects garbage before any store read happens.
type MemoryRedemptionRepository struct {
	mu          sync.RWMutex
	redemptions map[string]*model.Redemption
	lookupCalls int64
}

// NewMemoryRedemptionRepository creates an in-memory redemption repository
func NewMemoryRedemptionRepository() *MemoryRedemptionRepository {
	return &MemoryRedemptionRepository{
		redemptions: make(map[string]*model.Redemption),
	}
}

// LookupCalls reports how many code lookups the store has served.
func (r *MemoryRedemptionRepository) LookupCalls() int64 {
	return atomic.LoadInt64(&r.lookupCalls)
}

func (r *MemoryRedemptionRepository) Create(_ context.Context, redemption *model.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.redemptions[redemption.ID]; ok {
		return ierr.ErrAlreadyExists
	}
	clone := *redemption
	r.redemptions[redemption.ID] = &clone

	return nil
}

func (r *MemoryRedemptionRepository) Get(_ context.Context, id string) (*model.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	redemption, ok := r.redemptions[id]
	if !ok {
		return nil, ierr.ErrNotFound
	}
	clone := *redemption

	return &clone, nil
}

func (r *MemoryRedemptionRepository) FindByCode(_ context.Context, businessID, code string) (*model.Redemption, error) {
	atomic.AddInt64(&r.lookupCalls, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, redemption := range r.redemptions {
		if redemption.BusinessID != businessID {
			continue
		}
		if redemption.QRCode == code || redemption.AlphanumericCode == code {
			clone := *redemption
			return &clone, nil
		}
	}

	return nil, ierr.ErrNotFound
}

func (r *MemoryRedemptionRepository) MarkValidated(_ context.Context, id string, info model.ValidationInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	redemption, ok := r.redemptions[id]
	if !ok {
		return ierr.ErrNotFound
	}
	if redemption.Validated || redemption.Status != model.RedemptionPending {
		return ierr.ErrAlreadyValidated
	}

	infoCopy := info
	usedAt := info.ValidatedAt
	redemption.Validated = true
	redemption.Validation = &infoCopy
	redemption.Status = model.RedemptionUsed
	redemption.UsedAt = &usedAt

	return nil
}

func (r *MemoryRedemptionRepository) TransitionStatus(_ context.Context, id string, from, to model.RedemptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	redemption, ok := r.redemptions[id]
	if !ok || redemption.Status != from || redemption.Validated {
		return ierr.ErrNotFound
	}
	redemption.Status = to

	return nil
}

func (r *MemoryRedemptionRepository) ListByAccount(_ context.Context, accountID string) ([]*model.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var redemptions []*model.Redemption
	for _, redemption := range r.redemptions {
		if redemption.AccountID == accountID {
			clone := *redemption
			redemptions = append(redemptions, &clone)
		}
	}
	sort.Slice(redemptions, func(i, j int) bool {
		return redemptions[i].CreatedAt.After(redemptions[j].CreatedAt)
	})

	return redemptions, nil
}

func (r *MemoryRedemptionRepository) CountSince(_ context.Context, accountID, businessID string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, redemption := range r.redemptions {
		if redemption.AccountID == accountID &&
			redemption.BusinessID == businessID &&
			redemption.Status != model.RedemptionCancelled &&
			!redemption.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (r *MemoryRedemptionRepository) LastForReward(_ context.Context, accountID, rewardID string) (*model.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *model.Redemption
	for _, redemption := range r.redemptions {
		if redemption.AccountID != accountID ||
			redemption.RewardID != rewardID ||
			redemption.Status == model.RedemptionCancelled {
			continue
		}
		if last == nil || redemption.CreatedAt.After(last.CreatedAt) {
			last = redemption
		}
	}
	if last == nil {
		return nil, nil
	}
	clone := *last

	return &clone, nil
}

// SetCreatedAt rewinds a redemption's claim time, for frequency-window tests.
func (r *MemoryRedemptionRepository) SetCreatedAt(id string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if redemption, ok := r.redemptions[id]; ok {
		redemption.CreatedAt = t
	}
}
