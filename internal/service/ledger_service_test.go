package service

import (
	"sync"
	"testing"

	"bottega/internal/domain"
	"bottega/internal/models"

	"gorm.io/gorm"
)

// memCredits mirrors the repository contract: balance mutation and the
// transaction record are one atomic step, debits cap at zero.
type memCredits struct {
	mu       sync.Mutex
	accounts map[uint]*models.UserCredit
	history  []models.CreditTransaction
}

func newMemCredits() *memCredits {
	return &memCredits{accounts: map[uint]*models.UserCredit{}}
}

func (m *memCredits) GetOrCreate(userID uint) (*models.UserCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.accounts[userID]; ok {
		return c, nil
	}
	c := &models.UserCredit{UserID: userID, Currency: "EUR"}
	m.accounts[userID] = c
	return c, nil
}

func (m *memCredits) ApplyDelta(userID uint, deltaCents int64, txType, orderRef string) (*models.CreditTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	before := c.BalanceCents
	after := before + deltaCents
	applied := deltaCents
	if after < 0 {
		after = 0
		applied = -before
	}
	c.BalanceCents = after
	rec := models.CreditTransaction{
		UserID:             userID,
		AmountCents:        applied,
		BalanceBeforeCents: before,
		BalanceAfterCents:  after,
		Type:               txType,
		OrderRef:           orderRef,
	}
	m.history = append(m.history, rec)
	return &rec, nil
}

type memGiftCardBalances struct {
	mu    sync.Mutex
	cards map[string]*models.GiftCard
}

func (m *memGiftCardBalances) DebitBalance(code string, amountCents int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gc, ok := m.cards[code]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	gc.BalanceCents -= amountCents
	if gc.BalanceCents <= 0 {
		gc.BalanceCents = 0
		gc.IsActive = false
	}
	return gc.BalanceCents, nil
}

func TestCreditUserThenDebitKeepsPairedRecords(t *testing.T) {
	credits := newMemCredits()
	svc := NewLedgerService(credits, &memGiftCardBalances{})

	if _, err := svc.CreditUser(7, 1000, domain.CreditTxTypeReferralReward, "BTG-A"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := svc.DebitCredit(7, 400, "BTG-B")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 600 {
		t.Fatalf("balance = %d, want 600", balance)
	}
	if len(credits.history) != 2 {
		t.Fatalf("expected 2 transaction records, got %d", len(credits.history))
	}
	last := credits.history[1]
	if last.BalanceBeforeCents != 1000 || last.BalanceAfterCents != 600 || last.AmountCents != -400 {
		t.Fatalf("debit record inconsistent: %+v", last)
	}
}

func TestDebitCreditCapsAtZero(t *testing.T) {
	credits := newMemCredits()
	svc := NewLedgerService(credits, &memGiftCardBalances{})
	if _, err := svc.CreditUser(7, 300, domain.CreditTxTypeReferralReward, "BTG-A"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := svc.DebitCredit(7, 500, "BTG-B")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, must never go negative", balance)
	}
	last := credits.history[len(credits.history)-1]
	if last.AmountCents != -300 {
		t.Fatalf("applied amount = %d, want the capped -300", last.AmountCents)
	}
}

func TestDebitCreditMissingAccountIsNoOp(t *testing.T) {
	svc := NewLedgerService(newMemCredits(), &memGiftCardBalances{})
	balance, err := svc.DebitCredit(42, 500, "BTG-C")
	if err != nil {
		t.Fatalf("missing account must not error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0", balance)
	}
}

func TestDebitCreditZeroAmountIsNoOp(t *testing.T) {
	credits := newMemCredits()
	svc := NewLedgerService(credits, &memGiftCardBalances{})
	if _, err := svc.DebitCredit(7, 0, "BTG-D"); err != nil {
		t.Fatalf("zero debit: %v", err)
	}
	if len(credits.history) != 0 {
		t.Fatal("zero debit must not write a record")
	}
}

func TestDebitGiftCardEmptiesAndDeactivates(t *testing.T) {
	cards := &memGiftCardBalances{cards: map[string]*models.GiftCard{
		"CARD": {Code: "CARD", AmountCents: 5000, BalanceCents: 1000, IsActive: true},
	}}
	svc := NewLedgerService(newMemCredits(), cards)
	balance, err := svc.DebitGiftCard("CARD", 2500)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want capped 0", balance)
	}
	if cards.cards["CARD"].IsActive {
		t.Fatal("empty card must be deactivated")
	}
}

func TestDebitGiftCardMissingCardIsNoOp(t *testing.T) {
	svc := NewLedgerService(newMemCredits(), &memGiftCardBalances{})
	balance, err := svc.DebitGiftCard("NOPE", 100)
	if err != nil {
		t.Fatalf("missing card must not error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0", balance)
	}
}
