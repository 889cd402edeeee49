// Package ledger is the points ledger: an append-only transaction log with a
// running balance per account. Credits and debits are idempotent keyed by
// reference id, so retried calls cannot double-spend.
package ledger

import (
	"time"
)

// TransactionType distinguishes credits from debits.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Account holds a running point balance. Businesses hold accounts too; the
// closed-loop economy credits them with the points customers spend.
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	PointBalance int64     `bson:"point_balance" json:"point_balance"`
	Level        int       `bson:"level" json:"level"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Transaction is one ledger entry. Amount is always positive; Type carries
// the direction. ReferenceID ties the entry to the redemption (or offer)
// that caused it and doubles as the idempotency key.
type Transaction struct {
	ID           string          `bson:"_id" json:"id"`
	AccountID    string          `bson:"account_id" json:"account_id"`
	Type         TransactionType `bson:"type" json:"type"`
	Amount       int64           `bson:"amount" json:"amount"`
	Reason       string          `bson:"reason" json:"reason"`
	ReferenceID  string          `bson:"reference_id" json:"reference_id"`
	BalanceAfter int64           `bson:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
}
