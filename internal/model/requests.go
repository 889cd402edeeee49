package model

import (
	"time"
)

// CreateRewardRequest represents the request to create a reward
type CreateRewardRequest struct {
	BusinessID     string          `json:"business_id" binding:"required"`
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	PointsCost     int64           `json:"points_cost" binding:"required,gt=0"`
	TotalAvailable int64           `json:"total_available"`
	Unlimited      bool            `json:"unlimited"`
	Frequency      FrequencyPolicy `json:"frequency" binding:"omitempty,oneof=once once_per_day once_per_week unlimited"`
	ValidationType ValidationType  `json:"validation_type" binding:"required,oneof=physical online"`

	ValidFrom     *time.Time     `json:"valid_from"`
	ValidUntil    *time.Time     `json:"valid_until"`
	ValidWeekdays []time.Weekday `json:"valid_weekdays"`
	DailyWindow   TimeWindow     `json:"daily_window"`

	MinPointsBalance int64 `json:"min_points_balance"`
	MinLevel         int   `json:"min_level"`
}

// RedeemRequest represents the request to redeem a reward
type RedeemRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	RewardID  string `json:"reward_id" binding:"required"`
	IP        string `json:"-"`
	DeviceID  string `json:"device_id"`
}

// RedeemResult is returned on successful redemption; the code is displayed
// or printed by the caller.
type RedeemResult struct {
	RedemptionID   string         `json:"redemption_id"`
	Code           string         `json:"code"`
	ValidationType ValidationType `json:"validation_type"`
	PointsSpent    int64          `json:"points_spent"`
	BalanceAfter   int64          `json:"balance_after"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
}

// ValidateRequest represents a validator presenting a one-time code
type ValidateRequest struct {
	Code        string `json:"code" binding:"required"`
	BusinessID  string `json:"business_id" binding:"required"`
	ValidatorID string `json:"validator_id" binding:"required"`
	Method      string `json:"method"`
	IP          string `json:"-"`
	DeviceID    string `json:"device_id"`
}

// ValidateResult is returned when a code is consumed successfully
type ValidateResult struct {
	RedemptionID string    `json:"redemption_id"`
	AccountID    string    `json:"account_id"`
	RewardTitle  string    `json:"reward_title"`
	ValidatedAt  time.Time `json:"validated_at"`
	ValidatedBy  string    `json:"validated_by"`
	Method       string    `json:"method"`
}

// CreateOfferRequest represents the request to create a special offer
type CreateOfferRequest struct {
	BusinessID     string     `json:"business_id" binding:"required"`
	Code           string     `json:"code" binding:"required"`
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	PointsReward   int64      `json:"points_reward" binding:"required,gt=0"`
	MaxRedemptions int64      `json:"max_redemptions"`
	MaxPerUser     int64      `json:"max_per_user"`
	ValidFrom      *time.Time `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until"`
}

// RedeemOfferRequest represents the request to redeem an offer code
type RedeemOfferRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// RedeemOfferResult is returned when an offer code is redeemed
type RedeemOfferResult struct {
	OfferID        string `json:"offer_id"`
	OfferTitle     string `json:"offer_title"`
	PointsCredited int64  `json:"points_credited"`
	BalanceAfter   int64  `json:"balance_after"`
}

// CreateAccountRequest represents the request to create a points account
type CreateAccountRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name" binding:"required"`
	Level          int    `json:"level"`
	InitialBalance int64  `json:"initial_balance" binding:"gte=0"`
}
