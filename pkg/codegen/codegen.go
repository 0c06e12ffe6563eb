// Package codegen produces the identifiers settlement hands out: order
// numbers, gift-card codes and redemption tokens. Generation alone never
// guarantees uniqueness; callers that need a hard guarantee pair a generator
// with GenerateUnique and a persistent taken-check.
package codegen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNumberPrefix = "BTG"

// giftCardAlphabet excludes 0/O and 1/I so codes survive being read aloud
// or typed from a printed card.
const giftCardAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const GiftCardCodeLength = 14

// ErrExhaustedRetries means the retry budget was spent without finding a free
// code. Operators treat it as a signal of alphabet pressure, not a transient.
var ErrExhaustedRetries = errors.New("exhausted unique code generation retries")

// NewOrderNumber returns e.g. "BTG-M4K2V81ZQ-7FKQ". Time component plus a
// random suffix makes collisions extremely unlikely, but not impossible;
// the database's unique index stays the final arbiter.
func NewOrderNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return orderNumberPrefix + "-" + ts + "-" + randomFromAlphabet(4)
}

// NewGiftCardCode returns a human-enterable code. No uniqueness guarantee:
// pair with GenerateUnique against the issued-code blacklist.
func NewGiftCardCode() string {
	return randomFromAlphabet(GiftCardCodeLength)
}

// NewRedemptionToken returns an opaque token for QR-based gift card lookup.
// Collision probability is negligible without a check.
func NewRedemptionToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return strings.ReplaceAll(uuid.NewString(), "-", "") + hex.EncodeToString(b)
}

// NewReferralCode returns a short shareable invite code. No uniqueness
// guarantee: pair with GenerateUnique against the referral code table.
func NewReferralCode() string {
	return randomFromAlphabet(8)
}

// GenerateUnique draws from gen until taken reports the value as free, up to
// maxAttempts. It returns a wrapped ErrExhaustedRetries when the budget runs
// out so that exhaustion stays distinguishable from transient store errors.
func GenerateUnique(gen func() string, taken func(string) (bool, error), maxAttempts int) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code := gen()
		exists, err := taken(code)
		if err != nil {
			return "", fmt.Errorf("uniqueness check: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhaustedRetries, maxAttempts)
}

func randomFromAlphabet(n int) string {
	max := big.NewInt(int64(len(giftCardAlphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process has no entropy source;
			// nothing sensible to do but panic like uuid.NewString does.
			panic(err)
		}
		sb.WriteByte(giftCardAlphabet[idx.Int64()])
	}
	return sb.String()
}
