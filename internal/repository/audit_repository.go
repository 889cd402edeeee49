package repository

import (
	"context"

	"reward-system/internal/model"
)

// AuditRepository defines the interface for the append-only validation log
type AuditRepository interface {
	// Append writes a new audit entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *model.ValidationAudit) error

	// ListByRedemption retrieves all audit entries for a redemption
	ListByRedemption(ctx context.Context, redemptionID string) ([]*model.ValidationAudit, error)
}
