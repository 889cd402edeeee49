package service

import (
	"context"
	"time"

	"reward-system/internal/codegen"
	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/notify"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"
	"reward-system/pkg/types"

	ierr "reward-system/pkg/errors"
)

// OfferService handles promo-code style special offers. Redeeming an offer
// credits points immediately; there is no later validation step.
type OfferService struct {
	offers   repository.OfferRepository
	ledger   *ledger.Service
	notifier notify.Sender
	logger   *logger.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(
	offers repository.OfferRepository,
	ledgerSvc *ledger.Service,
	notifier notify.Sender,
	log *logger.Logger,
) *OfferService {
	return &OfferService{
		offers:   offers,
		ledger:   ledgerSvc,
		notifier: notifier,
		logger:   log,
	}
}

// CreateOffer adds a special offer. The code is normalized so later lookups
// are insensitive to case and stray whitespace.
func (s *OfferService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.SpecialOffer, error) {
	offer := &model.SpecialOffer{
		ID:             types.GenerateIDWithPrefix(types.ID_PREFIX_SPECIAL_OFFER),
		BusinessID:     req.BusinessID,
		Code:           codegen.Normalize(req.Code),
		Title:          req.Title,
		Description:    req.Description,
		PointsReward:   req.PointsReward,
		MaxRedemptions: req.MaxRedemptions,
		MaxPerUser:     req.MaxPerUser,
		Active:         true,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		CreatedAt:      time.Now(),
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		if ierr.Is(err, ierr.ErrAlreadyExists) {
			return nil, ierr.WithError(err).
				WithHint("An offer with this code already exists.").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, err
	}

	return offer, nil
}

// GetOffer retrieves an offer by id.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*model.SpecialOffer, error) {
	return s.offers.Get(ctx, id)
}

// RedeemOffer consumes an offer code for an account and credits the linked
// points.
func (s *OfferService) RedeemOffer(ctx context.Context, req *model.RedeemOfferRequest) (*model.RedeemOfferResult, error) {
	code := codegen.Normalize(req.Code)

	offer, err := s.offers.GetByCode(ctx, code)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("This offer code is not valid.").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	if !offer.Active {
		return nil, ierr.NewError("offer inactive").
			WithHint("This offer is no longer active.").
			Mark(ierr.ErrIneligible)
	}
	if offer.ValidFrom != nil && now.Before(*offer.ValidFrom) {
		return nil, ierr.NewError("offer not yet available").
			WithHintf("This offer starts on %s.", offer.ValidFrom.Format("Jan 2, 2006")).
			Mark(ierr.ErrIneligible)
	}
	if offer.ValidUntil != nil && !offer.ValidUntil.After(now) {
		return nil, ierr.NewError("offer expired").
			WithHintf("This offer expired on %s.", offer.ValidUntil.Format("Jan 2, 2006")).
			Mark(ierr.ErrExpired)
	}

	if offer.MaxPerUser > 0 {
		count, err := s.offers.CountForAccount(ctx, offer.ID, req.AccountID)
		if err != nil {
			return nil, err
		}
		if count >= offer.MaxPerUser {
			return nil, ierr.NewError("per-user offer cap reached").
				WithHintf("You have already redeemed this offer %d time(s), the maximum allowed.", count).
				Mark(ierr.ErrFrequencyExceeded)
		}
	}

	// Global cap is authoritative: the guarded increment decides who gets
	// the last redemption under concurrency.
	if err := s.offers.IncrementRedeemed(ctx, offer.ID); err != nil {
		if ierr.Is(err, ierr.ErrSoldOut) {
			return nil, ierr.WithError(err).
				WithHint("This offer has reached its redemption limit.").
				Mark(ierr.ErrSoldOut)
		}
		return nil, err
	}

	offerRedemptionID := types.GenerateIDWithPrefix(types.ID_PREFIX_OFFER_REDEMPTION)
	if err := s.offers.RecordRedemption(ctx, &model.OfferRedemption{
		ID:             offerRedemptionID,
		OfferID:        offer.ID,
		AccountID:      req.AccountID,
		PointsCredited: offer.PointsReward,
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}

	credit, err := s.ledger.Credit(ctx, req.AccountID, offer.PointsReward,
		"special offer: "+offer.Title, offerRedemptionID)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.notifier.Notify(context.Background(), req.AccountID, notify.Notification{
			Type:    "offer_redeemed",
			Title:   "Offer redeemed",
			Message: "You earned " + offer.Title + ".",
		}); err != nil {
			s.logger.Warnw("failed to send offer notification",
				"account_id", req.AccountID,
				"offer_id", offer.ID,
				"error", err)
		}
	}()

	s.logger.Infow("offer redeemed",
		"offer_id", offer.ID,
		"account_id", req.AccountID,
		"points_credited", offer.PointsReward)

	return &model.RedeemOfferResult{
		OfferID:        offer.ID,
		OfferTitle:     offer.Title,
		PointsCredited: offer.PointsReward,
		BalanceAfter:   credit.BalanceAfter,
	}, nil
}
