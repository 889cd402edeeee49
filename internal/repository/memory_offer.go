package repository

import (
	"context"
	"sync"

	"reward-system/internal/model"
	ierr "reward-system/pkg/errors"
)

// MemoryOfferRepository is an in-memory OfferRepository for tests.
type MemoryOfferRepository struct {
	mu          sync.RWMutex
	offers      map[string]*model.SpecialOffer
	redemptions []*model.OfferRedemption
}

// NewMemoryOfferRepository creates an in-memory offer repository
func NewMemoryOfferRepository() *MemoryOfferRepository {
	return &MemoryOfferRepository{
		offers: make(map[string]*model.SpecialOffer),
	}
}

func (r *MemoryOfferRepository) Create(_ context.Context, offer *model.SpecialOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.offers {
		if existing.Code == offer.Code {
			return ierr.ErrAlreadyExists
		}
	}
	clone := *offer
	r.offers[offer.ID] = &clone

	return nil
}

func (r *MemoryOfferRepository) Get(_ context.Context, id string) (*model.SpecialOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, ierr.ErrNotFound
	}
	clone := *offer

	return &clone, nil
}

func (r *MemoryOfferRepository) GetByCode(_ context.Context, code string) (*model.SpecialOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, offer := range r.offers {
		if offer.Code == code {
			clone := *offer
			return &clone, nil
		}
	}

	return nil, ierr.ErrNotFound
}

func (r *MemoryOfferRepository) IncrementRedeemed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return ierr.ErrNotFound
	}
	if offer.MaxRedemptions > 0 && offer.RedeemedCount >= offer.MaxRedemptions {
		return ierr.ErrSoldOut
	}
	offer.RedeemedCount++

	return nil
}

func (r *MemoryOfferRepository) CountForAccount(_ context.Context, offerID, accountID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, redemption := range r.redemptions {
		if redemption.OfferID == offerID && redemption.AccountID == accountID {
			count++
		}
	}

	return count, nil
}

func (r *MemoryOfferRepository) RecordRedemption(_ context.Context, redemption *model.OfferRedemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *redemption
	r.redemptions = append(r.redemptions, &clone)

	return nil
}
