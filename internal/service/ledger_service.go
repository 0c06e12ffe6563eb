package service

import (
	"errors"

	"bottega/internal/domain"
	"bottega/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreditStore is the slice of the credit repository the ledger needs.
type CreditStore interface {
	GetOrCreate(userID uint) (*models.UserCredit, error)
	ApplyDelta(userID uint, deltaCents int64, txType, orderRef string) (*models.CreditTransaction, error)
}

// GiftCardBalanceStore is the slice of the gift card repository the ledger needs.
type GiftCardBalanceStore interface {
	DebitBalance(code string, amountCents int64) (int64, error)
}

// LedgerService is the only component that mutates balances. Debits cap at
// zero instead of failing: the amount requested is bounded by what checkout
// reserved, so a shortfall means the client raced an emptying account, not
// that money should go negative.
type LedgerService struct {
	credits   CreditStore
	giftCards GiftCardBalanceStore
}

func NewLedgerService(credits CreditStore, giftCards GiftCardBalanceStore) *LedgerService {
	return &LedgerService{credits: credits, giftCards: giftCards}
}

// DebitCredit removes store credit from a user and appends the paired
// transaction record in the same database transaction. A missing account is
// nothing-to-debit: logged, not an error, since credit usage is optional
// per order.
func (s *LedgerService) DebitCredit(userID uint, amountCents int64, orderRef string) (int64, error) {
	if amountCents <= 0 {
		return 0, nil
	}
	record, err := s.credits.ApplyDelta(userID, -amountCents, domain.CreditTxTypePurchase, orderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint("user_id", userID).Str("order_ref", orderRef).Msg("credit debit: no credit account, nothing to debit")
			return 0, nil
		}
		return 0, err
	}
	return record.BalanceAfterCents, nil
}

// CreditUser adds to a user's balance, creating the account if needed.
func (s *LedgerService) CreditUser(userID uint, amountCents int64, txType, orderRef string) (int64, error) {
	if amountCents <= 0 {
		return 0, nil
	}
	if _, err := s.credits.GetOrCreate(userID); err != nil {
		return 0, err
	}
	record, err := s.credits.ApplyDelta(userID, amountCents, txType, orderRef)
	if err != nil {
		return 0, err
	}
	return record.BalanceAfterCents, nil
}

// DebitGiftCard spends from a gift card, capping at zero; the repository
// deactivates the card when the balance empties. A missing card is treated
// like a missing credit account.
func (s *LedgerService) DebitGiftCard(code string, amountCents int64) (int64, error) {
	if amountCents <= 0 || code == "" {
		return 0, nil
	}
	newBalance, err := s.giftCards.DebitBalance(code, amountCents)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("code", code).Msg("gift card debit: card not found, nothing to debit")
			return 0, nil
		}
		return 0, err
	}
	return newBalance, nil
}
