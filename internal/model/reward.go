package model

import (
	"time"
)

// FrequencyPolicy controls how often one account may redeem the same reward.
// Day and week policies are sliding windows measured from the last
// redemption, not calendar-aligned.
type FrequencyPolicy string

const (
	FrequencyOnce        FrequencyPolicy = "once"
	FrequencyOncePerDay  FrequencyPolicy = "once_per_day"
	FrequencyOncePerWeek FrequencyPolicy = "once_per_week"
	FrequencyUnlimited   FrequencyPolicy = "unlimited"
)

// ValidationType selects the one-time code format a redemption carries.
type ValidationType string

const (
	ValidationPhysical ValidationType = "physical" // QR code scanned in person
	ValidationOnline   ValidationType = "online"   // human-typeable alphanumeric code
)

// TimeWindow restricts redemption to a daily window, expressed in minutes
// since midnight. A zero window means no restriction.
type TimeWindow struct {
	StartMinute int `bson:"start_minute" json:"start_minute"`
	EndMinute   int `bson:"end_minute" json:"end_minute"`
}

// IsZero reports whether no daily window is configured.
func (w TimeWindow) IsZero() bool {
	return w.StartMinute == 0 && w.EndMinute == 0
}

// Contains reports whether t falls inside the daily window.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= w.StartMinute && minute <= w.EndMinute
}

// Reward represents a catalog entry customers can redeem points against
type Reward struct {
	ID             string          `bson:"_id" json:"id"`
	BusinessID     string          `bson:"business_id" json:"business_id"`
	Title          string          `bson:"title" json:"title"`
	Description    string          `bson:"description,omitempty" json:"description,omitempty"`
	Category       string          `bson:"category,omitempty" json:"category,omitempty"`
	PointsCost     int64           `bson:"points_cost" json:"points_cost"`
	TotalAvailable int64           `bson:"total_available" json:"total_available"`
	Claimed        int64           `bson:"claimed" json:"claimed"`
	Unlimited      bool            `bson:"unlimited" json:"unlimited"`
	Active         bool            `bson:"active" json:"active"`
	Frequency      FrequencyPolicy `bson:"frequency" json:"frequency"`
	ValidationType ValidationType  `bson:"validation_type" json:"validation_type"`

	// Validity window. ValidWeekdays empty means any day.
	ValidFrom     *time.Time     `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil    *time.Time     `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	ValidWeekdays []time.Weekday `bson:"valid_weekdays,omitempty" json:"valid_weekdays,omitempty"`
	DailyWindow   TimeWindow     `bson:"daily_window,omitempty" json:"daily_window,omitempty"`

	// Eligibility thresholds
	MinPointsBalance  int64 `bson:"min_points_balance,omitempty" json:"min_points_balance,omitempty"`
	MinPurchaseAmount int64 `bson:"min_purchase_amount,omitempty" json:"min_purchase_amount,omitempty"`
	MinLevel          int   `bson:"min_level,omitempty" json:"min_level,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SoldOut reports whether the reward's availability is exhausted.
func (r *Reward) SoldOut() bool {
	return !r.Unlimited && r.Claimed >= r.TotalAvailable
}
