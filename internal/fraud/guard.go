// Package fraud gates redemption creation and validation against abuse,
// independent of the one-time-use mechanism. Device and IP fingerprints are
// recorded as evidence only; nothing here blocks on them automatically.
package fraud

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"

	ierr "reward-system/pkg/errors"
)

// Sliding windows for the redemption frequency policies. "Once per day"
// means "not within the last 24 hours", not once per calendar day.
const (
	DayWindow  = 24 * time.Hour
	WeekWindow = 7 * 24 * time.Hour

	DefaultRateLimitWindow = 30 * 24 * time.Hour
	DefaultRateLimitMax    = 10
)

// Guard runs the anti-abuse checks around redemption creation.
type Guard struct {
	redemptions     repository.RedemptionRepository
	rateLimitWindow time.Duration
	rateLimitMax    int64
	logger          *logger.Logger
}

// NewGuard creates a fraud guard with the default rate-limit policy.
func NewGuard(redemptions repository.RedemptionRepository, log *logger.Logger) *Guard {
	return &Guard{
		redemptions:     redemptions,
		rateLimitWindow: DefaultRateLimitWindow,
		rateLimitMax:    DefaultRateLimitMax,
		logger:          log,
	}
}

// WithRateLimit overrides the rolling-window redemption cap.
func (g *Guard) WithRateLimit(window time.Duration, max int64) *Guard {
	if window > 0 {
		g.rateLimitWindow = window
	}
	if max > 0 {
		g.rateLimitMax = max
	}
	return g
}

// CheckEligibility runs the creation-time checks in order, cheapest first.
// The first failure aborts with its specific reason; callers must surface
// that reason, never a generic "ineligible".
func (g *Guard) CheckEligibility(account *ledger.Account, reward *model.Reward, now time.Time) error {
	if !reward.Active {
		return ierr.NewError("reward inactive").
			WithHint("This reward is not currently active.").
			Mark(ierr.ErrIneligible)
	}

	if reward.SoldOut() {
		return ierr.NewError("reward availability exhausted").
			WithHintf("This reward is sold out (%d of %d claimed).", reward.Claimed, reward.TotalAvailable).
			Mark(ierr.ErrSoldOut)
	}

	if reward.ValidFrom != nil && now.Before(*reward.ValidFrom) {
		return ierr.NewError("reward not yet available").
			WithHintf("This reward becomes available on %s.", reward.ValidFrom.Format("Jan 2, 2006")).
			Mark(ierr.ErrIneligible)
	}
	if reward.ValidUntil != nil && !reward.ValidUntil.After(now) {
		return ierr.NewError("reward expired").
			WithHintf("This reward expired on %s.", reward.ValidUntil.Format("Jan 2, 2006")).
			Mark(ierr.ErrExpired)
	}

	if len(reward.ValidWeekdays) > 0 && !lo.Contains(reward.ValidWeekdays, now.Weekday()) {
		days := lo.Map(reward.ValidWeekdays, func(d time.Weekday, _ int) string {
			return d.String()
		})
		return ierr.NewError("reward not valid today").
			WithHintf("This reward is only available on: %s.", strings.Join(days, ", ")).
			Mark(ierr.ErrIneligible)
	}

	if !reward.DailyWindow.Contains(now) {
		return ierr.NewError("reward outside daily window").
			WithHintf("This reward is only available between %02d:%02d and %02d:%02d.",
				reward.DailyWindow.StartMinute/60, reward.DailyWindow.StartMinute%60,
				reward.DailyWindow.EndMinute/60, reward.DailyWindow.EndMinute%60).
			Mark(ierr.ErrIneligible)
	}

	if reward.MinPointsBalance > 0 && account.PointBalance < reward.MinPointsBalance {
		return ierr.NewError("balance below reward threshold").
			WithHintf("This reward requires a balance of at least %d points.", reward.MinPointsBalance).
			Mark(ierr.ErrIneligible)
	}

	if reward.MinLevel > 0 && account.Level < reward.MinLevel {
		return ierr.NewError("account level below reward threshold").
			WithHintf("This reward requires loyalty level %d or above.", reward.MinLevel).
			Mark(ierr.ErrIneligible)
	}

	if account.PointBalance < reward.PointsCost {
		return ierr.NewError("balance does not cover cost").
			WithHintf("You need %d points to redeem this reward; your balance is %d.",
				reward.PointsCost, account.PointBalance).
			Mark(ierr.ErrInsufficientPoints)
	}

	return nil
}

// CheckFrequency enforces the reward's redemption-frequency policy against
// the account's most recent prior redemption of that reward. The window
// boundary is inclusive: a once-per-day reward redeemed at T becomes
// available again at exactly T+24h.
func (g *Guard) CheckFrequency(ctx context.Context, accountID string, reward *model.Reward, now time.Time) error {
	if reward.Frequency == model.FrequencyUnlimited || reward.Frequency == "" {
		return nil
	}

	last, err := g.redemptions.LastForReward(ctx, accountID, reward.ID)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}

	switch reward.Frequency {
	case model.FrequencyOnce:
		return ierr.NewError("reward already redeemed").
			WithHint("This reward can only be redeemed once per account.").
			Mark(ierr.ErrFrequencyExceeded)
	case model.FrequencyOncePerDay, model.FrequencyOncePerWeek:
		window := DayWindow
		if reward.Frequency == model.FrequencyOncePerWeek {
			window = WeekWindow
		}
		nextAvailableAt := last.CreatedAt.Add(window)
		if now.Before(nextAvailableAt) {
			return ierr.NewError("redemption frequency exceeded").
				WithHintf("You can redeem this reward again at %s.", nextAvailableAt.Format(time.RFC1123)).
				WithReportableDetails(map[string]any{
					"next_available_at": nextAvailableAt.Format(time.RFC3339),
				}).
				Mark(ierr.ErrFrequencyExceeded)
		}
	}

	return nil
}

// CheckRateLimit enforces the rolling per-account, per-business cap. It
// recomputes by counting prior redemptions in the window on every check;
// there is no counter to drift.
func (g *Guard) CheckRateLimit(ctx context.Context, accountID, businessID string, now time.Time) error {
	count, err := g.redemptions.CountSince(ctx, accountID, businessID, now.Add(-g.rateLimitWindow))
	if err != nil {
		return err
	}

	if count >= g.rateLimitMax {
		g.logger.Warnw("redemption rate limit reached",
			"account_id", accountID,
			"business_id", businessID,
			"count", count)
		return ierr.NewError("redemption rate limit reached").
			WithHintf("You have reached the limit of %d redemptions at this business in the last %d days.",
				g.rateLimitMax, int(g.rateLimitWindow.Hours()/24)).
			Mark(ierr.ErrRateLimited)
	}

	return nil
}
