package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reward-system/internal/fraud"
	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/notify"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"

	ierr "reward-system/pkg/errors"
)

type RewardServiceSuite struct {
	suite.Suite
	rewards     *repository.MemoryRewardRepository
	redemptions *repository.MemoryRedemptionRepository
	audits      *repository.MemoryAuditRepository
	ledger      *ledger.Service
	svc         *RewardService
	validation  *ValidationService
}

func TestRewardServiceSuite(t *testing.T) {
	suite.Run(t, new(RewardServiceSuite))
}

func (s *RewardServiceSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.rewards = repository.NewMemoryRewardRepository()
	s.redemptions = repository.NewMemoryRedemptionRepository()
	s.audits = repository.NewMemoryAuditRepository()
	s.ledger = ledger.NewService(ledger.NewMemoryStore(), log)

	guard := fraud.NewGuard(s.redemptions, log)
	s.svc = NewRewardService(s.rewards, s.redemptions, guard, s.ledger, notify.NewLogSender(log), log)
	s.validation = NewValidationService(
		s.redemptions,
		s.audits,
		repository.NewMemoryTxRunner(),
		fraud.StaticChecker(true),
		log,
	)
}

func (s *RewardServiceSuite) createAccount(id string, balance int64) {
	_, err := s.ledger.CreateAccount(context.Background(), id, "Customer", 1, balance)
	s.Require().NoError(err)
}

func (s *RewardServiceSuite) createReward(mutate func(*model.CreateRewardRequest)) *model.Reward {
	req := &model.CreateRewardRequest{
		BusinessID:     "biz_1",
		Title:          "Free Coffee",
		PointsCost:     100,
		TotalAvailable: 1,
		Frequency:      model.FrequencyOnce,
		ValidationType: model.ValidationPhysical,
	}
	if mutate != nil {
		mutate(req)
	}
	reward, err := s.svc.CreateReward(context.Background(), req)
	s.Require().NoError(err)

	return reward
}

func (s *RewardServiceSuite) redeem(accountID, rewardID string) (*model.RedeemResult, error) {
	return s.svc.Redeem(context.Background(), &model.RedeemRequest{
		AccountID: accountID,
		RewardID:  rewardID,
	})
}

func (s *RewardServiceSuite) balance(accountID string) int64 {
	balance, err := s.ledger.Balance(context.Background(), accountID)
	s.Require().NoError(err)
	return balance
}

func (s *RewardServiceSuite) TestRedeemFullFlow() {
	ctx := context.Background()
	s.createAccount("acc_1", 150)
	reward := s.createReward(nil)

	result, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), result.PointsSpent)
	s.Equal(int64(50), result.BalanceAfter)
	s.Regexp(`^REDEEM-[A-F0-9]{16}-\d+$`, result.Code)

	s.Equal(int64(50), s.balance("acc_1"))
	s.Equal(int64(100), s.balance("biz_1"), "spent points flow to the business")

	stored, err := s.rewards.Get(ctx, reward.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.Claimed)

	// Both legs of the transfer share the redemption id as reference.
	debits, err := s.ledger.ListTransactions(ctx, "acc_1")
	s.Require().NoError(err)
	s.Require().Len(debits, 1)
	s.Equal(result.RedemptionID, debits[0].ReferenceID)
	credits, err := s.ledger.ListTransactions(ctx, "biz_1")
	s.Require().NoError(err)
	s.Require().Len(credits, 1)
	s.Equal(result.RedemptionID, credits[0].ReferenceID)

	// The minted code validates exactly once.
	validated, err := s.validation.Validate(ctx, &model.ValidateRequest{
		Code:        result.Code,
		BusinessID:  "biz_1",
		ValidatorID: "staff_1",
	})
	s.Require().NoError(err)
	s.Equal(result.RedemptionID, validated.RedemptionID)

	_, err = s.validation.Validate(ctx, &model.ValidateRequest{
		Code:        result.Code,
		BusinessID:  "biz_1",
		ValidatorID: "staff_2",
	})
	s.True(ierr.IsAlreadyValidated(err), "got %v", err)
}

func (s *RewardServiceSuite) TestRedeemOnlineRewardMintsAlphanumericCode() {
	s.createAccount("acc_1", 150)
	reward := s.createReward(func(r *model.CreateRewardRequest) {
		r.ValidationType = model.ValidationOnline
	})

	result, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)
	s.Regexp(`^[A-Z0-9]{4}-[A-Z0-9]{4,}-[A-Z0-9]+$`, result.Code)

	stored, err := s.redemptions.Get(context.Background(), result.RedemptionID)
	s.Require().NoError(err)
	s.NotEmpty(stored.AlphanumericCode)
	s.Empty(stored.QRCode)
}

func (s *RewardServiceSuite) TestSecondRedemptionBlocked() {
	s.createAccount("acc_1", 500)
	reward := s.createReward(nil)

	_, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)

	// The only unit is claimed, so availability fails before frequency does.
	_, err = s.redeem("acc_1", reward.ID)
	s.True(ierr.Is(err, ierr.ErrSoldOut), "got %v", err)
	s.Equal(int64(400), s.balance("acc_1"), "failed attempt must not move points")
}

func (s *RewardServiceSuite) TestOnceFrequencyBlocksForever() {
	s.createAccount("acc_1", 500)
	reward := s.createReward(func(r *model.CreateRewardRequest) {
		r.Unlimited = true
		r.TotalAvailable = 0
	})

	res, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)

	// Even a year later the once policy still blocks.
	s.redemptions.SetCreatedAt(res.RedemptionID, time.Now().Add(-365*24*time.Hour))
	_, err = s.redeem("acc_1", reward.ID)
	s.True(ierr.Is(err, ierr.ErrFrequencyExceeded), "got %v", err)
}

func (s *RewardServiceSuite) TestDailyFrequencyWindowReopens() {
	s.createAccount("acc_1", 1000)
	reward := s.createReward(func(r *model.CreateRewardRequest) {
		r.Unlimited = true
		r.TotalAvailable = 0
		r.Frequency = model.FrequencyOncePerDay
	})

	res, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)

	s.redemptions.SetCreatedAt(res.RedemptionID, time.Now().Add(-23*time.Hour))
	_, err = s.redeem("acc_1", reward.ID)
	s.True(ierr.Is(err, ierr.ErrFrequencyExceeded), "got %v", err)

	s.redemptions.SetCreatedAt(res.RedemptionID, time.Now().Add(-24*time.Hour))
	_, err = s.redeem("acc_1", reward.ID)
	s.NoError(err, "window boundary is inclusive")
}

func (s *RewardServiceSuite) TestRedeemInsufficientPoints() {
	ctx := context.Background()
	s.createAccount("acc_1", 50)
	reward := s.createReward(nil)

	_, err := s.redeem("acc_1", reward.ID)
	s.True(ierr.Is(err, ierr.ErrInsufficientPoints), "got %v", err)

	s.Equal(int64(50), s.balance("acc_1"))
	redemptions, err := s.svc.ListAccountRedemptions(ctx, "acc_1")
	s.Require().NoError(err)
	s.Empty(redemptions, "rejected attempt must leave no record")

	stored, err := s.rewards.Get(ctx, reward.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), stored.Claimed)
}

func (s *RewardServiceSuite) TestRedeemUnknownRewardOrAccount() {
	s.createAccount("acc_1", 150)
	reward := s.createReward(nil)

	_, err := s.redeem("acc_1", "rwd_missing")
	s.True(ierr.IsNotFound(err), "got %v", err)

	_, err = s.redeem("acc_missing", reward.ID)
	s.True(ierr.IsNotFound(err), "got %v", err)
}

func (s *RewardServiceSuite) TestRateLimit() {
	log := logger.NewNopLogger()
	guard := fraud.NewGuard(s.redemptions, log).WithRateLimit(30*24*time.Hour, 2)
	svc := NewRewardService(s.rewards, s.redemptions, guard, s.ledger, notify.NewLogSender(log), log)

	s.createAccount("acc_1", 1000)
	reward := s.createReward(func(r *model.CreateRewardRequest) {
		r.Unlimited = true
		r.TotalAvailable = 0
		r.Frequency = model.FrequencyUnlimited
	})

	for i := 0; i < 2; i++ {
		_, err := svc.Redeem(context.Background(), &model.RedeemRequest{AccountID: "acc_1", RewardID: reward.ID})
		s.Require().NoError(err)
	}

	_, err := svc.Redeem(context.Background(), &model.RedeemRequest{AccountID: "acc_1", RewardID: reward.ID})
	s.True(ierr.Is(err, ierr.ErrRateLimited), "got %v", err)
}

func (s *RewardServiceSuite) TestConcurrentRedeemsLimitedStock() {
	reward := s.createReward(func(r *model.CreateRewardRequest) {
		r.TotalAvailable = 5
		r.Frequency = model.FrequencyUnlimited
		r.PointsCost = 10
	})

	const customers = 20
	accounts := make([]string, customers)
	for i := range accounts {
		accounts[i] = "acc_" + string(rune('a'+i))
		s.createAccount(accounts[i], 100)
	}

	var wg sync.WaitGroup
	errs := make([]error, customers)
	for i := 0; i < customers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.redeem(accounts[i], reward.ID)
		}(i)
	}
	wg.Wait()

	var successes, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case ierr.Is(err, ierr.ErrSoldOut):
			soldOut++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(5, successes, "availability bounds concurrent claims")
	s.Equal(customers-5, soldOut)

	stored, err := s.rewards.Get(context.Background(), reward.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), stored.Claimed)
	s.Equal(int64(50), s.balance("biz_1"))
}

func (s *RewardServiceSuite) TestCancelRefundsPoints() {
	ctx := context.Background()
	s.createAccount("acc_1", 150)
	reward := s.createReward(nil)

	result, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)
	s.Equal(int64(50), s.balance("acc_1"))

	s.Require().NoError(s.svc.CancelRedemption(ctx, result.RedemptionID, "acc_1"))

	stored, err := s.redemptions.Get(ctx, result.RedemptionID)
	s.Require().NoError(err)
	s.Equal(model.RedemptionCancelled, stored.Status)

	s.Equal(int64(150), s.balance("acc_1"), "cancellation refunds the points")
	s.Equal(int64(0), s.balance("biz_1"), "business credit is reclaimed")

	// Terminal state: cannot cancel again, and the code is dead.
	err = s.svc.CancelRedemption(ctx, result.RedemptionID, "acc_1")
	s.Error(err)

	_, err = s.validation.Validate(ctx, &model.ValidateRequest{
		Code:        result.Code,
		BusinessID:  "biz_1",
		ValidatorID: "staff_1",
	})
	s.True(ierr.IsNotFound(err), "got %v", err)
}

func (s *RewardServiceSuite) TestCancelRequiresOwnership() {
	s.createAccount("acc_1", 150)
	reward := s.createReward(nil)

	result, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)

	err = s.svc.CancelRedemption(context.Background(), result.RedemptionID, "acc_intruder")
	s.True(ierr.Is(err, ierr.ErrPermissionDenied), "got %v", err)
}

func (s *RewardServiceSuite) TestCancelValidatedRedemptionRejected() {
	ctx := context.Background()
	s.createAccount("acc_1", 150)
	reward := s.createReward(nil)

	result, err := s.redeem("acc_1", reward.ID)
	s.Require().NoError(err)

	_, err = s.validation.Validate(ctx, &model.ValidateRequest{
		Code:        result.Code,
		BusinessID:  "biz_1",
		ValidatorID: "staff_1",
	})
	s.Require().NoError(err)

	err = s.svc.CancelRedemption(ctx, result.RedemptionID, "acc_1")
	s.True(ierr.IsAlreadyValidated(err), "got %v", err)
	s.Equal(int64(50), s.balance("acc_1"), "validated redemptions are not refundable")
}

func (s *RewardServiceSuite) TestCreateRewardRequiresAvailability() {
	_, err := s.svc.CreateReward(context.Background(), &model.CreateRewardRequest{
		BusinessID:     "biz_1",
		Title:          "Broken",
		PointsCost:     10,
		ValidationType: model.ValidationPhysical,
	})
	s.True(ierr.Is(err, ierr.ErrValidation), "got %v", err)
}

func (s *RewardServiceSuite) TestDeactivateRewardOwnership() {
	ctx := context.Background()
	reward := s.createReward(nil)

	err := s.svc.DeactivateReward(ctx, reward.ID, "biz_other")
	s.True(ierr.Is(err, ierr.ErrPermissionDenied), "got %v", err)

	s.Require().NoError(s.svc.DeactivateReward(ctx, reward.ID, "biz_1"))

	s.createAccount("acc_1", 500)
	_, err = s.redeem("acc_1", reward.ID)
	s.True(ierr.Is(err, ierr.ErrIneligible), "got %v", err)
}
