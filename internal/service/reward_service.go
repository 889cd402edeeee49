package service

import (
	"context"
	"time"

	"reward-system/internal/codegen"
	"reward-system/internal/fraud"
	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/notify"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"
	"reward-system/pkg/types"

	ierr "reward-system/pkg/errors"
)

// RewardService handles the reward catalog and the redemption path.
type RewardService struct {
	rewards     repository.RewardRepository
	redemptions repository.RedemptionRepository
	guard       *fraud.Guard
	ledger      *ledger.Service
	notifier    notify.Sender
	logger      *logger.Logger
}

// NewRewardService creates a new reward service
func NewRewardService(
	rewards repository.RewardRepository,
	redemptions repository.RedemptionRepository,
	guard *fraud.Guard,
	ledgerSvc *ledger.Service,
	notifier notify.Sender,
	log *logger.Logger,
) *RewardService {
	return &RewardService{
		rewards:     rewards,
		redemptions: redemptions,
		guard:       guard,
		ledger:      ledgerSvc,
		notifier:    notifier,
		logger:      log,
	}
}

// CreateReward adds a catalog entry for a business.
func (s *RewardService) CreateReward(ctx context.Context, req *model.CreateRewardRequest) (*model.Reward, error) {
	if !req.Unlimited && req.TotalAvailable <= 0 {
		return nil, ierr.NewError("reward has no availability").
			WithHint("Set total_available or mark the reward unlimited.").
			Mark(ierr.ErrValidation)
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = model.FrequencyUnlimited
	}

	now := time.Now()
	reward := &model.Reward{
		ID:               types.GenerateIDWithPrefix(types.ID_PREFIX_REWARD),
		BusinessID:       req.BusinessID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		PointsCost:       req.PointsCost,
		TotalAvailable:   req.TotalAvailable,
		Unlimited:        req.Unlimited,
		Active:           true,
		Frequency:        frequency,
		ValidationType:   req.ValidationType,
		ValidFrom:        req.ValidFrom,
		ValidUntil:       req.ValidUntil,
		ValidWeekdays:    req.ValidWeekdays,
		DailyWindow:      req.DailyWindow,
		MinPointsBalance: req.MinPointsBalance,
		MinLevel:         req.MinLevel,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.rewards.Create(ctx, reward); err != nil {
		return nil, err
	}

	s.logger.Infow("reward created",
		"reward_id", reward.ID,
		"business_id", reward.BusinessID,
		"points_cost", reward.PointsCost)

	return reward, nil
}

// GetReward retrieves a reward by id.
func (s *RewardService) GetReward(ctx context.Context, id string) (*model.Reward, error) {
	return s.rewards.Get(ctx, id)
}

// ListBusinessRewards retrieves a business's catalog.
func (s *RewardService) ListBusinessRewards(ctx context.Context, businessID string) ([]*model.Reward, error) {
	return s.rewards.ListByBusiness(ctx, businessID)
}

// DeactivateReward takes a reward off the catalog. Only the owning business
// may do this.
func (s *RewardService) DeactivateReward(ctx context.Context, id, businessID string) error {
	reward, err := s.rewards.Get(ctx, id)
	if err != nil {
		return err
	}
	if reward.BusinessID != businessID {
		return ierr.NewError("reward owned by another business").
			WithHint("Only the owning business can deactivate a reward.").
			Mark(ierr.ErrPermissionDenied)
	}

	return s.rewards.SetActive(ctx, id, false)
}

// Redeem claims a reward for an account: it runs the fraud pipeline, mints a
// one-time code, creates the redemption record, and moves the points from
// the customer to the business.
//
// Eligibility is fully checked before any write. After the record exists the
// point debit is ordered so a failure leaves an orphaned-but-harmless
// pending redemption rather than a phantom point loss.
func (s *RewardService) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error) {
	reward, err := s.rewards.Get(ctx, req.RewardID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("This reward does not exist.").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	account, err := s.ledger.GetAccount(ctx, req.AccountID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("Account not found.").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	if err := s.guard.CheckEligibility(account, reward, now); err != nil {
		return nil, err
	}
	if err := s.guard.CheckFrequency(ctx, account.ID, reward, now); err != nil {
		return nil, err
	}
	if err := s.guard.CheckRateLimit(ctx, account.ID, reward.BusinessID, now); err != nil {
		return nil, err
	}

	redemptionID := types.GenerateIDWithPrefix(types.ID_PREFIX_REDEMPTION)

	redemption := &model.Redemption{
		ID:         redemptionID,
		AccountID:  account.ID,
		RewardID:   reward.ID,
		BusinessID: reward.BusinessID,
		RewardSnapshot: model.RewardSnapshot{
			Title:      reward.Title,
			Category:   reward.Category,
			BusinessID: reward.BusinessID,
		},
		PointsSpent:     reward.PointsCost,
		Status:          model.RedemptionPending,
		ValidationToken: types.GenerateID(),
		Validated:       false,
		ExpiresAt:       reward.ValidUntil,
		CreatedAt:       now,
	}

	switch reward.ValidationType {
	case model.ValidationOnline:
		code, err := codegen.GenerateAlphanumericCode(redemptionID)
		if err != nil {
			return nil, err
		}
		redemption.AlphanumericCode = code
	default:
		code, err := codegen.GenerateQRCode(redemptionID, account.ID, reward.BusinessID)
		if err != nil {
			return nil, err
		}
		redemption.QRCode = code
	}

	if err := s.redemptions.Create(ctx, redemption); err != nil {
		return nil, err
	}

	if !reward.Unlimited {
		if err := s.rewards.IncrementClaimed(ctx, reward.ID); err != nil {
			if ierr.Is(err, ierr.ErrSoldOut) {
				// Lost the last unit to a concurrent redemption. Void the
				// record we just created; no points have moved yet.
				if cancelErr := s.redemptions.TransitionStatus(ctx, redemptionID, model.RedemptionPending, model.RedemptionCancelled); cancelErr != nil {
					s.logger.Errorw("failed to void redemption after sell-out",
						"redemption_id", redemptionID, "error", cancelErr)
				}
				return nil, ierr.WithError(err).
					WithHint("This reward sold out while your redemption was processing.").
					Mark(ierr.ErrSoldOut)
			}
			return nil, err
		}
	}

	debit, err := s.ledger.Debit(ctx, account.ID, reward.PointsCost,
		"reward redemption: "+reward.Title, redemptionID)
	if err != nil {
		// The pending redemption stays behind unpaid and unvalidatable
		// until cancelled; that is the harmless side of this failure.
		return nil, err
	}

	// Closed-loop economy: the points the customer spent flow to the
	// business. A transient failure here is recoverable by replaying the
	// idempotent credit, so it does not fail the redemption.
	if _, err := s.ledger.Credit(ctx, reward.BusinessID, reward.PointsCost,
		"reward redeemed: "+reward.Title, redemptionID); err != nil {
		s.logger.Errorw("failed to credit business for redemption",
			"redemption_id", redemptionID,
			"business_id", reward.BusinessID,
			"error", err)
	}

	s.notifyAsync(account.ID, notify.Notification{
		Type:    "reward_redeemed",
		Title:   "Reward redeemed",
		Message: "You redeemed " + reward.Title + ". Show your code to the business to use it.",
	})
	s.notifyAsync(reward.BusinessID, notify.Notification{
		Type:    "reward_claimed",
		Title:   "Reward claimed",
		Message: reward.Title + " was claimed by a customer.",
	})

	s.logger.Infow("reward redeemed",
		"redemption_id", redemptionID,
		"reward_id", reward.ID,
		"account_id", account.ID,
		"points_spent", reward.PointsCost)

	return &model.RedeemResult{
		RedemptionID:   redemptionID,
		Code:           redemption.Code(),
		ValidationType: reward.ValidationType,
		PointsSpent:    reward.PointsCost,
		BalanceAfter:   debit.BalanceAfter,
		ExpiresAt:      redemption.ExpiresAt,
	}, nil
}

// GetRedemption retrieves a redemption by id.
func (s *RewardService) GetRedemption(ctx context.Context, id string) (*model.Redemption, error) {
	return s.redemptions.Get(ctx, id)
}

// ListAccountRedemptions retrieves an account's redemptions, newest first.
func (s *RewardService) ListAccountRedemptions(ctx context.Context, accountID string) ([]*model.Redemption, error) {
	return s.redemptions.ListByAccount(ctx, accountID)
}

// CancelRedemption voids a pending, unvalidated redemption and refunds the
// points. Only the owning account or the business may cancel.
func (s *RewardService) CancelRedemption(ctx context.Context, redemptionID, requesterID string) error {
	redemption, err := s.redemptions.Get(ctx, redemptionID)
	if err != nil {
		return err
	}
	if requesterID != redemption.AccountID && requesterID != redemption.BusinessID {
		return ierr.NewError("requester does not own redemption").
			WithHint("Only the redeeming account or the business can cancel a redemption.").
			Mark(ierr.ErrPermissionDenied)
	}

	if err := s.redemptions.TransitionStatus(ctx, redemptionID, model.RedemptionPending, model.RedemptionCancelled); err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewError("redemption not cancellable").
				WithHint("Only pending, unvalidated redemptions can be cancelled.").
				Mark(ierr.ErrAlreadyValidated)
		}
		return err
	}

	refundRef := redemptionID + ":refund"
	if _, err := s.ledger.Credit(ctx, redemption.AccountID, redemption.PointsSpent,
		"redemption cancelled: "+redemption.RewardSnapshot.Title, refundRef); err != nil {
		s.logger.Errorw("failed to refund cancelled redemption",
			"redemption_id", redemptionID, "error", err)
		return err
	}
	if _, err := s.ledger.Debit(ctx, redemption.BusinessID, redemption.PointsSpent,
		"redemption cancelled: "+redemption.RewardSnapshot.Title, refundRef); err != nil {
		// The business balance may already be spent; flag for reconciliation.
		s.logger.Errorw("failed to reclaim business credit for cancelled redemption",
			"redemption_id", redemptionID,
			"business_id", redemption.BusinessID,
			"error", err)
	}

	s.logger.Infow("redemption cancelled",
		"redemption_id", redemptionID,
		"requester_id", requesterID)

	return nil
}

func (s *RewardService) notifyAsync(accountID string, n notify.Notification) {
	go func() {
		if err := s.notifier.Notify(context.Background(), accountID, n); err != nil {
			s.logger.Warnw("failed to send notification",
				"account_id", accountID,
				"type", n.Type,
				"error", err)
		}
	}()
}
