package repository

import (
	"context"
	"sync"

	"reward-system/internal/model"
)

// MemoryAuditRepository is an in-memory AuditRepository for tests.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []*model.ValidationAudit
}

// NewMemoryAuditRepository creates an in-memory audit repository
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Append(_ context.Context, entry *model.ValidationAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *entry
	r.entries = append(r.entries, &clone)

	return nil
}

func (r *MemoryAuditRepository) ListByRedemption(_ context.Context, redemptionID string) ([]*model.ValidationAudit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*model.ValidationAudit
	for _, entry := range r.entries {
		if entry.RedemptionID == redemptionID {
			clone := *entry
			entries = append(entries, &clone)
		}
	}

	return entries, nil
}

// All returns every entry in append order, for assertions.
func (r *MemoryAuditRepository) All() []*model.ValidationAudit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*model.ValidationAudit, 0, len(r.entries))
	for _, entry := range r.entries {
		clone := *entry
		entries = append(entries, &clone)
	}

	return entries
}
