package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateID returns a k-sortable unique identifier
func GenerateID() string {
	return ulid.Make().String()
}

// GenerateIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex rdm_01HQ3KV6J8ZT5Y2W4X6C8N0PRS
func GenerateIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateID())
}

const (
	// Prefixes for all domain entities

	ID_PREFIX_REWARD             = "rwd"
	ID_PREFIX_REDEMPTION         = "rdm"
	ID_PREFIX_VALIDATION_AUDIT   = "aud"
	ID_PREFIX_SPECIAL_OFFER      = "off"
	ID_PREFIX_OFFER_REDEMPTION   = "ordm"
	ID_PREFIX_LEDGER_TRANSACTION = "ptx"
	ID_PREFIX_ACCOUNT            = "acc"
	ID_PREFIX_BUSINESS           = "biz"
)
