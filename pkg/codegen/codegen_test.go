package codegen

import (
	"errors"
	"strings"
	"testing"
)

func TestNewOrderNumberFormat(t *testing.T) {
	n := NewOrderNumber()
	if !strings.HasPrefix(n, "BTG-") {
		t.Fatalf("order number %q missing prefix", n)
	}
	parts := strings.Split(n, "-")
	if len(parts) != 3 {
		t.Fatalf("order number %q should have three segments", n)
	}
	if len(parts[2]) != 4 {
		t.Fatalf("order number %q random suffix should be 4 chars", n)
	}
}

func TestNewGiftCardCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewGiftCardCode()
		if len(code) != GiftCardCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), GiftCardCodeLength)
		}
		for _, r := range code {
			if strings.ContainsRune("01OI", r) {
				t.Fatalf("code %q contains ambiguous character %q", code, r)
			}
			if !strings.ContainsRune(giftCardAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestNewRedemptionTokenLength(t *testing.T) {
	tok := NewRedemptionToken()
	if len(tok) != 48 {
		t.Fatalf("token %q has length %d, want 48", tok, len(tok))
	}
	if NewRedemptionToken() == tok {
		t.Fatal("two tokens should not collide")
	}
}

func TestGenerateUniqueRetriesCollisions(t *testing.T) {
	calls := 0
	taken := func(string) (bool, error) {
		calls++
		return calls < 3, nil
	}
	code, err := GenerateUnique(NewGiftCardCode, taken, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGenerateUniqueExhaustsBudget(t *testing.T) {
	calls := 0
	taken := func(string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := GenerateUnique(NewGiftCardCode, taken, 10)
	if !errors.Is(err, ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if calls != 10 {
		t.Fatalf("expected exactly 10 attempts, got %d", calls)
	}
}

func TestGenerateUniquePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("db down")
	_, err := GenerateUnique(NewGiftCardCode, func(string) (bool, error) {
		return false, storeErr
	}, 10)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if errors.Is(err, ErrExhaustedRetries) {
		t.Fatal("store error must stay distinguishable from exhaustion")
	}
}
