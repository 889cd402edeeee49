package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	ierr "reward-system/pkg/errors"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]*Account
	transactions []*Transaction
}

// NewMemoryStore creates an in-memory ledger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return ierr.ErrAlreadyExists
	}
	clone := *account
	s.accounts[account.ID] = &clone

	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ierr.ErrNotFound
	}
	clone := *account

	return &clone, nil
}

func (s *MemoryStore) AdjustBalance(_ context.Context, accountID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		if delta < 0 {
			return 0, ierr.ErrNotFound
		}
		account = &Account{ID: accountID, CreatedAt: time.Now()}
		s.accounts[accountID] = account
	}
	if delta < 0 && account.PointBalance < -delta {
		return 0, ierr.ErrInsufficientPoints
	}
	account.PointBalance += delta
	account.UpdatedAt = time.Now()

	return account.PointBalance, nil
}

func (s *MemoryStore) FindTransaction(_ context.Context, accountID, referenceID string, txType TransactionType) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, txn := range s.transactions {
		if txn.AccountID == accountID && txn.ReferenceID == referenceID && txn.Type == txType {
			clone := *txn
			return &clone, nil
		}
	}

	return nil, nil
}

func (s *MemoryStore) InsertTransaction(_ context.Context, txn *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.AccountID == txn.AccountID && existing.ReferenceID == txn.ReferenceID && existing.Type == txn.Type {
			return ierr.ErrAlreadyExists
		}
	}
	clone := *txn
	s.transactions = append(s.transactions, &clone)

	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, accountID string) ([]*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txns []*Transaction
	for _, txn := range s.transactions {
		if txn.AccountID == accountID {
			clone := *txn
			txns = append(txns, &clone)
		}
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})

	return txns, nil
}
