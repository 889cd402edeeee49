package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/notify"
	"reward-system/internal/repository"
	"reward-system/pkg/logger"

	ierr "reward-system/pkg/errors"
)

type OfferServiceSuite struct {
	suite.Suite
	offers *repository.MemoryOfferRepository
	ledger *ledger.Service
	svc    *OfferService
}

func TestOfferServiceSuite(t *testing.T) {
	suite.Run(t, new(OfferServiceSuite))
}

func (s *OfferServiceSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.offers = repository.NewMemoryOfferRepository()
	s.ledger = ledger.NewService(ledger.NewMemoryStore(), log)
	s.svc = NewOfferService(s.offers, s.ledger, notify.NewLogSender(log), log)
}

func (s *OfferServiceSuite) createOffer(mutate func(*model.CreateOfferRequest)) *model.SpecialOffer {
	req := &model.CreateOfferRequest{
		BusinessID:   "biz_1",
		Code:         "WELCOME50",
		Title:        "Welcome Bonus",
		PointsReward: 50,
	}
	if mutate != nil {
		mutate(req)
	}
	offer, err := s.svc.CreateOffer(context.Background(), req)
	s.Require().NoError(err)

	return offer
}

func (s *OfferServiceSuite) redeem(accountID, code string) (*model.RedeemOfferResult, error) {
	return s.svc.RedeemOffer(context.Background(), &model.RedeemOfferRequest{
		AccountID: accountID,
		Code:      code,
	})
}

func (s *OfferServiceSuite) TestRedeemOfferCreditsPoints() {
	offer := s.createOffer(nil)

	result, err := s.redeem("acc_1", "WELCOME50")
	s.Require().NoError(err)
	s.Equal(offer.ID, result.OfferID)
	s.Equal(int64(50), result.PointsCredited)
	s.Equal(int64(50), result.BalanceAfter)

	balance, err := s.ledger.Balance(context.Background(), "acc_1")
	s.Require().NoError(err)
	s.Equal(int64(50), balance)

	stored, err := s.offers.Get(context.Background(), offer.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.RedeemedCount)
}

func (s *OfferServiceSuite) TestRedeemOfferNormalizesCode() {
	s.createOffer(nil)

	_, err := s.redeem("acc_1", "  welcome 50 ")
	s.Require().NoError(err)
}

func (s *OfferServiceSuite) TestDuplicateCodeRejected() {
	s.createOffer(nil)

	_, err := s.svc.CreateOffer(context.Background(), &model.CreateOfferRequest{
		BusinessID:   "biz_2",
		Code:         "welcome50",
		Title:        "Copycat",
		PointsReward: 10,
	})
	s.True(ierr.Is(err, ierr.ErrAlreadyExists), "got %v", err)
}

func (s *OfferServiceSuite) TestUnknownCode() {
	_, err := s.redeem("acc_1", "NOSUCHCODE")
	s.True(ierr.IsNotFound(err), "got %v", err)
}

func (s *OfferServiceSuite) TestPerUserCap() {
	s.createOffer(func(r *model.CreateOfferRequest) { r.MaxPerUser = 1 })

	_, err := s.redeem("acc_1", "WELCOME50")
	s.Require().NoError(err)

	_, err = s.redeem("acc_1", "WELCOME50")
	s.True(ierr.Is(err, ierr.ErrFrequencyExceeded), "got %v", err)

	// Other accounts are unaffected by acc_1's cap.
	_, err = s.redeem("acc_2", "WELCOME50")
	s.NoError(err)
}

func (s *OfferServiceSuite) TestGlobalCap() {
	s.createOffer(func(r *model.CreateOfferRequest) { r.MaxRedemptions = 2 })

	for i := 0; i < 2; i++ {
		_, err := s.redeem(fmt.Sprintf("acc_%d", i), "WELCOME50")
		s.Require().NoError(err)
	}

	_, err := s.redeem("acc_9", "WELCOME50")
	s.True(ierr.Is(err, ierr.ErrSoldOut), "got %v", err)
}

func (s *OfferServiceSuite) TestOfferValidityWindow() {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	s.createOffer(func(r *model.CreateOfferRequest) {
		r.Code = "SOON"
		r.ValidFrom = &future
	})
	_, err := s.redeem("acc_1", "SOON")
	s.True(ierr.Is(err, ierr.ErrIneligible), "got %v", err)

	s.createOffer(func(r *model.CreateOfferRequest) {
		r.Code = "GONE"
		r.ValidUntil = &past
	})
	_, err = s.redeem("acc_1", "GONE")
	s.True(ierr.IsExpired(err), "got %v", err)
}
