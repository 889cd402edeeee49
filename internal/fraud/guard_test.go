package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"
	"reward-system/pkg/types"

	ierr "reward-system/pkg/errors"
)

// Monday noon, a fixed reference point for weekday and window checks.
var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testAccount() *ledger.Account {
	return &ledger.Account{
		ID:           "acc_1",
		Name:         "Test Customer",
		PointBalance: 500,
		Level:        2,
	}
}

func testReward(mutate func(*model.Reward)) *model.Reward {
	reward := &model.Reward{
		ID:             "rwd_1",
		BusinessID:     "biz_1",
		Title:          "Free Coffee",
		PointsCost:     100,
		TotalAvailable: 10,
		Active:         true,
		Frequency:      model.FrequencyUnlimited,
		ValidationType: model.ValidationPhysical,
	}
	if mutate != nil {
		mutate(reward)
	}
	return reward
}

func seedRedemption(t *testing.T, repo *repository.MemoryRedemptionRepository, rewardID string, createdAt time.Time, status model.RedemptionStatus) {
	t.Helper()
	err := repo.Create(context.Background(), &model.Redemption{
		ID:         types.GenerateIDWithPrefix(types.ID_PREFIX_REDEMPTION),
		AccountID:  "acc_1",
		RewardID:   rewardID,
		BusinessID: "biz_1",
		Status:     status,
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
}

func TestCheckEligibility(t *testing.T) {
	guard := NewGuard(repository.NewMemoryRedemptionRepository(), logger.NewNopLogger())

	past := testNow.Add(-24 * time.Hour)
	future := testNow.Add(24 * time.Hour)

	tests := []struct {
		name    string
		mutate  func(*model.Reward)
		account func(*ledger.Account)
		wantErr error
	}{
		{
			name:   "all checks pass",
			mutate: nil,
		},
		{
			name:    "inactive",
			mutate:  func(r *model.Reward) { r.Active = false },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:    "sold out",
			mutate:  func(r *model.Reward) { r.Claimed = r.TotalAvailable },
			wantErr: ierr.ErrSoldOut,
		},
		{
			name:    "not yet available",
			mutate:  func(r *model.Reward) { r.ValidFrom = &future },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:    "expired",
			mutate:  func(r *model.Reward) { r.ValidUntil = &past },
			wantErr: ierr.ErrExpired,
		},
		{
			name:    "wrong weekday",
			mutate:  func(r *model.Reward) { r.ValidWeekdays = []time.Weekday{time.Tuesday, time.Wednesday} },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:   "matching weekday",
			mutate: func(r *model.Reward) { r.ValidWeekdays = []time.Weekday{time.Monday} },
		},
		{
			name:    "outside daily window",
			mutate:  func(r *model.Reward) { r.DailyWindow = model.TimeWindow{StartMinute: 17 * 60, EndMinute: 20 * 60} },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:   "inside daily window",
			mutate: func(r *model.Reward) { r.DailyWindow = model.TimeWindow{StartMinute: 9 * 60, EndMinute: 17 * 60} },
		},
		{
			name:    "balance below threshold",
			mutate:  func(r *model.Reward) { r.MinPointsBalance = 1000 },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:    "level below threshold",
			mutate:  func(r *model.Reward) { r.MinLevel = 5 },
			wantErr: ierr.ErrIneligible,
		},
		{
			name:    "balance does not cover cost",
			account: func(a *ledger.Account) { a.PointBalance = 99 },
			wantErr: ierr.ErrInsufficientPoints,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			account := testAccount()
			if tc.account != nil {
				tc.account(account)
			}

			err := guard.CheckEligibility(account, testReward(tc.mutate), testNow)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, ierr.Is(err, tc.wantErr), "got %v", err)
			}
		})
	}
}

func TestCheckEligibilityOrdering(t *testing.T) {
	guard := NewGuard(repository.NewMemoryRedemptionRepository(), logger.NewNopLogger())

	// An inactive, sold-out reward fails on "inactive" first; the checks run
	// in a fixed order and the first reason wins.
	reward := testReward(func(r *model.Reward) {
		r.Active = false
		r.Claimed = r.TotalAvailable
	})

	err := guard.CheckEligibility(testAccount(), reward, testNow)
	assert.True(t, ierr.Is(err, ierr.ErrIneligible), "got %v", err)
	assert.False(t, ierr.Is(err, ierr.ErrSoldOut))
}

func TestCheckFrequencyOnce(t *testing.T) {
	repo := repository.NewMemoryRedemptionRepository()
	guard := NewGuard(repo, logger.NewNopLogger())
	reward := testReward(func(r *model.Reward) { r.Frequency = model.FrequencyOnce })

	require.NoError(t, guard.CheckFrequency(context.Background(), "acc_1", reward, testNow))

	seedRedemption(t, repo, reward.ID, testNow.Add(-90*24*time.Hour), model.RedemptionUsed)

	err := guard.CheckFrequency(context.Background(), "acc_1", reward, testNow)
	assert.True(t, ierr.Is(err, ierr.ErrFrequencyExceeded), "got %v", err)
}

func TestCheckFrequencySlidingWindows(t *testing.T) {
	tests := []struct {
		name      string
		frequency model.FrequencyPolicy
		lastAgo   time.Duration
		blocked   bool
	}{
		{"daily inside window", model.FrequencyOncePerDay, 23 * time.Hour, true},
		{"daily at exact boundary", model.FrequencyOncePerDay, 24 * time.Hour, false},
		{"daily past window", model.FrequencyOncePerDay, 25 * time.Hour, false},
		{"weekly inside window", model.FrequencyOncePerWeek, 6 * 24 * time.Hour, true},
		{"weekly at exact boundary", model.FrequencyOncePerWeek, 7 * 24 * time.Hour, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewMemoryRedemptionRepository()
			guard := NewGuard(repo, logger.NewNopLogger())
			reward := testReward(func(r *model.Reward) { r.Frequency = tc.frequency })

			seedRedemption(t, repo, reward.ID, testNow.Add(-tc.lastAgo), model.RedemptionUsed)

			err := guard.CheckFrequency(context.Background(), "acc_1", reward, testNow)
			if tc.blocked {
				assert.True(t, ierr.Is(err, ierr.ErrFrequencyExceeded), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckFrequencyIgnoresCancelled(t *testing.T) {
	repo := repository.NewMemoryRedemptionRepository()
	guard := NewGuard(repo, logger.NewNopLogger())
	reward := testReward(func(r *model.Reward) { r.Frequency = model.FrequencyOnce })

	seedRedemption(t, repo, reward.ID, testNow.Add(-time.Hour), model.RedemptionCancelled)

	assert.NoError(t, guard.CheckFrequency(context.Background(), "acc_1", reward, testNow))
}

func TestCheckRateLimit(t *testing.T) {
	repo := repository.NewMemoryRedemptionRepository()
	guard := NewGuard(repo, logger.NewNopLogger()).WithRateLimit(30*24*time.Hour, 3)

	require.NoError(t, guard.CheckRateLimit(context.Background(), "acc_1", "biz_1", testNow))

	for i := 0; i < 3; i++ {
		seedRedemption(t, repo, "rwd_1", testNow.Add(-time.Duration(i+1)*time.Hour), model.RedemptionUsed)
	}

	err := guard.CheckRateLimit(context.Background(), "acc_1", "biz_1", testNow)
	assert.True(t, ierr.Is(err, ierr.ErrRateLimited), "got %v", err)
}

func TestCheckRateLimitWindowSlides(t *testing.T) {
	repo := repository.NewMemoryRedemptionRepository()
	guard := NewGuard(repo, logger.NewNopLogger()).WithRateLimit(30*24*time.Hour, 3)

	// Two recent, one cancelled, one outside the window: only two count.
	seedRedemption(t, repo, "rwd_1", testNow.Add(-time.Hour), model.RedemptionUsed)
	seedRedemption(t, repo, "rwd_1", testNow.Add(-2*time.Hour), model.RedemptionPending)
	seedRedemption(t, repo, "rwd_1", testNow.Add(-3*time.Hour), model.RedemptionCancelled)
	seedRedemption(t, repo, "rwd_1", testNow.Add(-31*24*time.Hour), model.RedemptionUsed)

	assert.NoError(t, guard.CheckRateLimit(context.Background(), "acc_1", "biz_1", testNow))
}
