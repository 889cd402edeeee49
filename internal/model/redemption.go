package model

import (
	"time"
)

// RedemptionStatus is the lifecycle state of a redemption. Used, expired and
// cancelled are terminal.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionUsed      RedemptionStatus = "used"
	RedemptionExpired   RedemptionStatus = "expired"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// RewardSnapshot freezes reward details at claim time so later catalog edits
// do not rewrite redemption history.
type RewardSnapshot struct {
	Title      string `bson:"title" json:"title"`
	Category   string `bson:"category,omitempty" json:"category,omitempty"`
	BusinessID string `bson:"business_id" json:"business_id"`
}

// ValidationInfo is populated exactly once, when a validator consumes the code.
type ValidationInfo struct {
	ValidatedAt time.Time `bson:"validated_at" json:"validated_at"`
	ValidatedBy string    `bson:"validated_by" json:"validated_by"`
	Method      string    `bson:"method" json:"method"`
	IP          string    `bson:"ip,omitempty" json:"ip,omitempty"`
	DeviceID    string    `bson:"device_id,omitempty" json:"device_id,omitempty"`
}

// Redemption represents one claim of a reward by one account. Records are
// never deleted; cancellation is a status change.
type Redemption struct {
	ID             string           `bson:"_id" json:"id"`
	AccountID      string           `bson:"account_id" json:"account_id"`
	RewardID       string           `bson:"reward_id" json:"reward_id"`
	BusinessID     string           `bson:"business_id" json:"business_id"`
	RewardSnapshot RewardSnapshot   `bson:"reward_snapshot" json:"reward_snapshot"`
	PointsSpent    int64            `bson:"points_spent" json:"points_spent"`
	Status         RedemptionStatus `bson:"status" json:"status"`

	// Exactly one of the two codes is set, depending on the reward's
	// validation type.
	QRCode           string `bson:"qr_code,omitempty" json:"qr_code,omitempty"`
	AlphanumericCode string `bson:"alphanumeric_code,omitempty" json:"alphanumeric_code,omitempty"`
	ValidationToken  string `bson:"validation_token" json:"validation_token"`

	// Validated flips false -> true exactly once; Validation is only set
	// alongside that flip.
	Validated  bool            `bson:"validated" json:"validated"`
	Validation *ValidationInfo `bson:"validation,omitempty" json:"validation,omitempty"`

	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	UsedAt    *time.Time `bson:"used_at,omitempty" json:"used_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// Code returns whichever one-time code the redemption carries.
func (r *Redemption) Code() string {
	if r.QRCode != "" {
		return r.QRCode
	}
	return r.AlphanumericCode
}

// Expired reports whether the redemption's expiry has passed at t.
func (r *Redemption) Expired(t time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(t)
}
