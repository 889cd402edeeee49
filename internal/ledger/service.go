package ledger

import (
	"context"
	"time"

	"reward-system/pkg/logger"
	"reward-system/pkg/types"

	ierr "reward-system/pkg/errors"
)

// Service exposes idempotent credit and debit operations. Callers key each
// call with a reference id (typically the redemption id); replays return the
// original transaction without touching the balance again.
type Service struct {
	store  Store
	logger *logger.Logger
}

// NewService creates a new ledger service
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// CreateAccount provisions a points account with an opening balance.
func (s *Service) CreateAccount(ctx context.Context, id, name string, level int, openingBalance int64) (*Account, error) {
	if id == "" {
		id = types.GenerateIDWithPrefix(types.ID_PREFIX_ACCOUNT)
	}
	now := time.Now()
	account := &Account{
		ID:           id,
		Name:         name,
		PointBalance: openingBalance,
		Level:        level,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by id.
func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.store.GetAccount(ctx, id)
}

// Balance returns the account's current point balance.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.PointBalance, nil
}

// Credit adds points to an account, idempotent on (account, reference).
func (s *Service) Credit(ctx context.Context, accountID string, amount int64, reason, referenceID string) (*Transaction, error) {
	return s.apply(ctx, accountID, amount, TransactionCredit, reason, referenceID)
}

// Debit removes points from an account, idempotent on (account, reference).
// Fails with ErrInsufficientPoints when the balance does not cover it.
func (s *Service) Debit(ctx context.Context, accountID string, amount int64, reason, referenceID string) (*Transaction, error) {
	return s.apply(ctx, accountID, amount, TransactionDebit, reason, referenceID)
}

// ListTransactions retrieves an account's ledger entries, newest first.
func (s *Service) ListTransactions(ctx context.Context, accountID string) ([]*Transaction, error) {
	return s.store.ListTransactions(ctx, accountID)
}

func (s *Service) apply(ctx context.Context, accountID string, amount int64, txType TransactionType, reason, referenceID string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ierr.NewError("ledger amount must be positive").
			WithHint("Point amounts must be greater than zero.").
			Mark(ierr.ErrValidation)
	}

	// Idempotent replay: a prior transaction with the same key wins.
	if existing, err := s.store.FindTransaction(ctx, accountID, referenceID, txType); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Infow("ledger replay, returning existing transaction",
			"account_id", accountID,
			"reference_id", referenceID,
			"type", txType)
		return existing, nil
	}

	delta := amount
	if txType == TransactionDebit {
		delta = -amount
	}

	balanceAfter, err := s.store.AdjustBalance(ctx, accountID, delta)
	if err != nil {
		return nil, err
	}

	txn := &Transaction{
		ID:           types.GenerateIDWithPrefix(types.ID_PREFIX_LEDGER_TRANSACTION),
		AccountID:    accountID,
		Type:         txType,
		Amount:       amount,
		Reason:       reason,
		ReferenceID:  referenceID,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now(),
	}

	if err := s.store.InsertTransaction(ctx, txn); err != nil {
		if ierr.Is(err, ierr.ErrAlreadyExists) {
			// A concurrent call won the idempotency index. Undo our
			// balance change and hand back the winner's entry.
			if _, compErr := s.store.AdjustBalance(ctx, accountID, -delta); compErr != nil {
				s.logger.Errorw("failed to compensate duplicate ledger entry",
					"account_id", accountID,
					"reference_id", referenceID,
					"error", compErr)
			}
			existing, findErr := s.store.FindTransaction(ctx, accountID, referenceID, txType)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return txn, nil
}
