package model

import (
	"time"
)

// AuditOutcome is the result recorded for a validation attempt.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFailure AuditOutcome = "failure"
)

// ValidationAudit is a write-once log record of a validation attempt.
// Entries are appended for failures as well as successes so fraud
// investigation sees the complete picture; they are never mutated or deleted.
type ValidationAudit struct {
	ID           string       `bson:"_id" json:"id"`
	RedemptionID string       `bson:"redemption_id,omitempty" json:"redemption_id,omitempty"`
	RewardID     string       `bson:"reward_id,omitempty" json:"reward_id,omitempty"`
	AccountID    string       `bson:"account_id,omitempty" json:"account_id,omitempty"`
	BusinessID   string       `bson:"business_id" json:"business_id"`
	ValidatorID  string       `bson:"validator_id" json:"validator_id"`
	Method       string       `bson:"method" json:"method"`
	Outcome      AuditOutcome `bson:"outcome" json:"outcome"`
	Reason       string       `bson:"reason,omitempty" json:"reason,omitempty"`

	// Fraud-signal metadata. Evidence for post-hoc investigation, never
	// acted on automatically.
	IP       string `bson:"ip,omitempty" json:"ip,omitempty"`
	DeviceID string `bson:"device_id,omitempty" json:"device_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
