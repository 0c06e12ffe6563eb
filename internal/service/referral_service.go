package service

import (
	"errors"
	"fmt"
	"strconv"

	"bottega/internal/domain"
	"bottega/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultReferralRewardCents = 500

type ReferralStore interface {
	GetByReferredUserID(userID uint) (*models.Referral, error)
	MarkConverted(referredUserID, orderID uint) (bool, error)
}

type OrderCounter interface {
	CountCompletedByUser(userID uint, excludeOrderID uint) (int64, error)
}

type RewardLedger interface {
	CreditUser(userID uint, amountCents int64, txType, orderRef string) (int64, error)
}

type ConversionResult struct {
	Converted   bool
	ReferrerID  uint
	RewardCents int64
}

// ReferralService resolves pending referrals on the referee's first
// completed order and credits the referrer a fixed reward.
type ReferralService struct {
	referrals ReferralStore
	orders    OrderCounter
	ledger    RewardLedger
	settings  SettingsReader
}

func NewReferralService(referrals ReferralStore, orders OrderCounter, ledger RewardLedger, settings SettingsReader) *ReferralService {
	return &ReferralService{referrals: referrals, orders: orders, ledger: ledger, settings: settings}
}

// TryConvert converts the referee's pending referral if this is their first
// completed order. The conditional update in MarkConverted is the race-free
// arbiter: even if duplicate deliveries of the first order run concurrently,
// at most one caller observes the pending -> converted edge and credits the
// referrer. Callers swallow every error from here after logging.
func (s *ReferralService) TryConvert(refereeID, orderID uint, orderRef string) (*ConversionResult, error) {
	ref, err := s.referrals.GetByReferredUserID(refereeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ConversionResult{Converted: false}, nil
		}
		return nil, fmt.Errorf("load referral: %w", err)
	}
	if ref.Status != domain.ReferralStatusPending {
		return &ConversionResult{Converted: false}, nil
	}
	prior, err := s.orders.CountCompletedByUser(refereeID, orderID)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if prior > 0 {
		// Not the first order; the referral stays pending forever, which
		// matches a referee whose qualifying order never happened.
		return &ConversionResult{Converted: false}, nil
	}
	converted, err := s.referrals.MarkConverted(refereeID, orderID)
	if err != nil {
		return nil, fmt.Errorf("mark converted: %w", err)
	}
	if !converted {
		return &ConversionResult{Converted: false}, nil
	}
	reward := s.rewardCents()
	if _, err := s.ledger.CreditUser(ref.ReferrerID, reward, domain.CreditTxTypeReferralReward, orderRef); err != nil {
		// The conversion is already durable; losing the credit would be
		// worse than double-logging, so surface loudly to the audit trail
		// via the caller.
		return nil, fmt.Errorf("credit referrer %d: %w", ref.ReferrerID, err)
	}
	log.Info().Uint("referrer_id", ref.ReferrerID).Uint("referee_id", refereeID).Int64("reward_cents", reward).Msg("referral converted")
	return &ConversionResult{Converted: true, ReferrerID: ref.ReferrerID, RewardCents: reward}, nil
}

func (s *ReferralService) rewardCents() int64 {
	raw, err := s.settings.Get(domain.SettingReferralRewardCents)
	if err != nil || raw == "" {
		return defaultReferralRewardCents
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return defaultReferralRewardCents
	}
	return n
}
