package model

import (
	"time"
)

// SpecialOffer is a promo-code style entry. Unlike rewards, redeeming an
// offer credits points immediately rather than producing a claimable coupon.
type SpecialOffer struct {
	ID            string     `bson:"_id" json:"id"`
	BusinessID    string     `bson:"business_id" json:"business_id"`
	Code          string     `bson:"code" json:"code"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	PointsReward  int64      `bson:"points_reward" json:"points_reward"`
	MaxRedemptions int64     `bson:"max_redemptions" json:"max_redemptions"` // 0 = unlimited
	MaxPerUser    int64      `bson:"max_per_user" json:"max_per_user"`       // 0 = unlimited
	RedeemedCount int64      `bson:"redeemed_count" json:"redeemed_count"`
	Active        bool       `bson:"active" json:"active"`
	ValidFrom     *time.Time `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil    *time.Time `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// OfferRedemption records one account redeeming one offer code.
type OfferRedemption struct {
	ID             string    `bson:"_id" json:"id"`
	OfferID        string    `bson:"offer_id" json:"offer_id"`
	AccountID      string    `bson:"account_id" json:"account_id"`
	PointsCredited int64     `bson:"points_credited" json:"points_credited"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
