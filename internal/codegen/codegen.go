// Package codegen mints one-time redemption codes and provides the cheap
// structural gate that runs before any storage lookup.
package codegen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ierr "reward-system/pkg/errors"

	"reward-system/internal/model"
)

var (
	qrCodePattern       = regexp.MustCompile(`^REDEEM-[A-F0-9]{16}-\d+$`)
	alphanumericPattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4,}-[A-Z0-9]+$`)
	nonAlphanumeric     = regexp.MustCompile(`[^A-Z0-9]`)
)

const alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateQRCode produces an unguessable code for physical validation.
// Uniqueness rests on the timestamp plus random nonce entropy; the generator
// does not check the store for prior existence.
func GenerateQRCode(redemptionID, accountID, businessID string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", ierr.WithError(err).
			WithMessage("failed to read random nonce").
			Mark(ierr.ErrDatabase)
	}

	now := time.Now().UnixMilli()
	payload := fmt.Sprintf("%s|%s|%s|%d|%s", redemptionID, accountID, businessID, now, hex.EncodeToString(nonce))
	digest := sha256.Sum256([]byte(payload))

	return fmt.Sprintf("REDEEM-%s-%d", strings.ToUpper(hex.EncodeToString(digest[:8])), now), nil
}

// GenerateAlphanumericCode produces a human-typeable code for online
// validation, hyphen-grouped for readability.
func GenerateAlphanumericCode(redemptionID string) (string, error) {
	prefix := nonAlphanumeric.ReplaceAllString(strings.ToUpper(redemptionID), "")
	if len(prefix) < 4 {
		prefix = (prefix + "XXXX")[:4]
	} else {
		prefix = prefix[:4]
	}

	random := make([]byte, 6)
	if _, err := rand.Read(random); err != nil {
		return "", ierr.WithError(err).
			WithMessage("failed to read random bytes").
			Mark(ierr.ErrDatabase)
	}
	middle := make([]byte, 6)
	for i, b := range random {
		middle[i] = alphanumericAlphabet[int(b)%len(alphanumericAlphabet)]
	}

	suffix := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	return fmt.Sprintf("%s-%s-%s", prefix, string(middle), suffix), nil
}

// Normalize strips whitespace and uppercases a code before any checks.
func Normalize(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// IsValidFormat is the structural gate. It must run before any database
// lookup so garbage input never reaches the storage layer.
func IsValidFormat(code string, validationType model.ValidationType) bool {
	switch validationType {
	case model.ValidationPhysical:
		return qrCodePattern.MatchString(code)
	case model.ValidationOnline:
		return alphanumericPattern.MatchString(code)
	default:
		return false
	}
}

// IsValidAnyFormat accepts either code kind; the validation engine does not
// know the reward's validation type before the lookup.
func IsValidAnyFormat(code string) bool {
	return qrCodePattern.MatchString(code) || alphanumericPattern.MatchString(code)
}
