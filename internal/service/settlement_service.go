package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bottega/internal/domain"
	"bottega/internal/models"
	"bottega/pkg/codegen"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const giftCardCodeMaxAttempts = 10

// OrderStore is the slice of the order repository settlement writes through.
type OrderStore interface {
	Create(o *models.Order, items []models.OrderItem) error
	FindByPaymentRef(ref string) (*models.Order, error)
	MarkManualReview(orderID uint, reason string) (bool, error)
}

type GiftCardIssuer interface {
	CodeIssued(code string) (bool, error)
	Create(gc *models.GiftCard) error
}

type CartClearer interface {
	Clear(userID uint) error
}

type PromotionCounter interface {
	IncrementUsage(code string) (bool, error)
}

// BalanceLedger is the ledger surface the fan-out debits through.
type BalanceLedger interface {
	DebitCredit(userID uint, amountCents int64, orderRef string) (int64, error)
	DebitGiftCard(code string, amountCents int64) (int64, error)
}

// ConversionResolver decides and applies referral conversion; all its
// failures are swallowed here after logging.
type ConversionResolver interface {
	TryConvert(refereeID, orderID uint, orderRef string) (*ConversionResult, error)
}

// SettlementNotifier receives fire-and-forget human-readable alerts.
type SettlementNotifier interface {
	NotifyOrderConfirmed(userID uint, orderNumber string, totalCents int64)
	NotifyGiftCardIssued(userID uint, code string, amountCents int64, recipientEmail string)
	NotifyReferralConverted(referrerID uint, rewardCents int64, orderNumber string)
}

type AuditTrail interface {
	Create(entry *models.AuditLog) error
}

type SettingsReader interface {
	Get(key string) (string, error)
}

// SettlementResult is what the webhook handler acknowledges with.
type SettlementResult struct {
	Order     *models.Order
	GiftCard  *models.GiftCard
	Duplicate bool
}

// SettlementService turns one completed-payment event into the full set of
// durable state changes: order creation, then a concurrent fan-out of
// side effects that never roll the order back.
type SettlementService struct {
	provider   string
	orders     OrderStore
	giftCards  GiftCardIssuer
	carts      CartClearer
	promotions PromotionCounter
	ledger     BalanceLedger
	referrals  ConversionResolver
	notifier   SettlementNotifier
	audit      AuditTrail
	settings   SettingsReader
}

func NewSettlementService(
	provider string,
	orders OrderStore,
	giftCards GiftCardIssuer,
	carts CartClearer,
	promotions PromotionCounter,
	ledger BalanceLedger,
	referrals ConversionResolver,
	notifier SettlementNotifier,
	audit AuditTrail,
	settings SettingsReader,
) *SettlementService {
	return &SettlementService{
		provider:   provider,
		orders:     orders,
		giftCards:  giftCards,
		carts:      carts,
		promotions: promotions,
		ledger:     ledger,
		referrals:  referrals,
		notifier:   notifier,
		audit:      audit,
		settings:   settings,
	}
}

// Settle processes one authenticated checkout event. Duplicate deliveries of
// an already-settled payment reference return a no-op result, not an error.
// Fan-out failures are logged and audited but never surface to the caller.
func (s *SettlementService) Settle(event CheckoutEvent) (*SettlementResult, error) {
	session := event.Data.Object
	ref := session.PaymentRef()
	if ref == "" {
		return nil, fmt.Errorf("%w: event without payment reference", ErrBadMetadata)
	}
	if existing, err := s.orders.FindByPaymentRef(ref); err == nil && existing != nil {
		log.Info().Str("payment_ref", ref).Str("order_number", existing.OrderNumber).Msg("duplicate delivery, already settled")
		return &SettlementResult{Order: existing, Duplicate: true}, nil
	}
	meta, err := ParseCheckoutMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}
	if meta.PurchaseType == domain.PurchaseTypeGiftCard {
		return s.settleGiftCard(session, meta)
	}
	return s.settleMerchandise(session, meta)
}

func (s *SettlementService) settleGiftCard(session CheckoutSession, meta *CheckoutMetadata) (*SettlementResult, error) {
	// A card is minted with balance == amount == the authoritative total, so a
	// non-positive total would break 0 < balance <= amount and mint an active
	// card holding nothing.
	if session.AmountTotal <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %d for gift card purchase", ErrBadMetadata, session.AmountTotal)
	}
	code, err := codegen.GenerateUnique(codegen.NewGiftCardCode, s.giftCards.CodeIssued, giftCardCodeMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("gift card code: %w", err)
	}
	order := &models.Order{
		OrderNumber:   codegen.NewOrderNumber(),
		UserID:        meta.UserID,
		Status:        domain.OrderStatusConfirmed,
		SubtotalCents: session.AmountTotal,
		TotalCents:    session.AmountTotal,
		Currency:      normalizeCurrency(session.Currency),
		Provider:      s.provider,
		PaymentRef:    session.PaymentRef(),
		DigitalOnly:   true,
	}
	if dup, err := s.createOrder(order, nil); err != nil {
		return nil, err
	} else if dup != nil {
		return &SettlementResult{Order: dup, Duplicate: true}, nil
	}
	gc := &models.GiftCard{
		Code:            code,
		RedemptionToken: codegen.NewRedemptionToken(),
		AmountCents:     session.AmountTotal,
		BalanceCents:    session.AmountTotal,
		Currency:        order.Currency,
		IsActive:        true,
		RecipientEmail:  meta.RecipientEmail,
		RecipientName:   meta.RecipientName,
		SenderName:      meta.SenderName,
		Message:         meta.GiftMessage,
		PurchaseOrderID: order.ID,
		ExpiresAt:       time.Now().AddDate(0, s.expiryMonths(), 0),
	}
	if err := s.giftCards.Create(gc); err != nil {
		// The paid order is durable but the card is not: force a state a
		// human will see instead of silently dropping the purchase.
		if _, mrErr := s.orders.MarkManualReview(order.ID, "gift card issuance failed: "+err.Error()); mrErr != nil {
			log.Error().Err(mrErr).Uint("order_id", order.ID).Msg("failed to flag order for manual review")
		}
		s.auditSideEffect(order, "gift_card_create_failed", err.Error())
		return nil, fmt.Errorf("create gift card: %w", err)
	}
	s.auditSideEffect(order, "gift_card_issued", gc.Code)
	go s.notifier.NotifyGiftCardIssued(meta.UserID, gc.Code, gc.AmountCents, gc.RecipientEmail)
	return &SettlementResult{Order: order, GiftCard: gc}, nil
}

func (s *SettlementService) settleMerchandise(session CheckoutSession, meta *CheckoutMetadata) (*SettlementResult, error) {
	// The processor's total is authoritative; metadata only splits it.
	// subtotal = total + discount - shipping keeps the monetary identity
	// exact by construction, and a negative subtotal exposes inconsistent
	// metadata before anything is written.
	total := session.AmountTotal
	subtotal := total + meta.DiscountCents - meta.ShippingCents
	if total < 0 || subtotal < 0 {
		return nil, fmt.Errorf("%w: inconsistent amounts (total=%d discount=%d shipping=%d)", ErrBadMetadata, total, meta.DiscountCents, meta.ShippingCents)
	}
	items := make([]models.OrderItem, 0, len(meta.Items))
	for _, it := range meta.Items {
		items = append(items, models.OrderItem{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	order := &models.Order{
		OrderNumber:   codegen.NewOrderNumber(),
		UserID:        meta.UserID,
		Status:        domain.OrderStatusConfirmed,
		SubtotalCents: subtotal,
		DiscountCents: meta.DiscountCents,
		ShippingCents: meta.ShippingCents,
		TotalCents:    total,
		Currency:      normalizeCurrency(session.Currency),
		Provider:      s.provider,
		PaymentRef:    session.PaymentRef(),
		PromoCode:     meta.PromoCode,
		ShipName:      meta.Shipping.Name,
		ShipStreet:    meta.Shipping.Street,
		ShipCity:      meta.Shipping.City,
		ShipZip:       meta.Shipping.Zip,
		ShipCountry:   meta.Shipping.Country,
	}
	if dup, err := s.createOrder(order, items); err != nil {
		return nil, err
	} else if dup != nil {
		return &SettlementResult{Order: dup, Duplicate: true}, nil
	}
	s.auditSideEffect(order, "order_settled", session.PaymentRef())

	s.fanOut(order, meta)

	// Explicitly detached: the response never waits for the alert.
	go s.notifier.NotifyOrderConfirmed(order.UserID, order.OrderNumber, order.TotalCents)

	return &SettlementResult{Order: order}, nil
}

// fanOut runs the independent side effects concurrently and joins them.
// Every failure is isolated: logged and audited, never propagated, because
// an already-paid order must not be blocked or reversed by cleanup.
func (s *SettlementService) fanOut(order *models.Order, meta *CheckoutMetadata) {
	var wg sync.WaitGroup
	run := func(kind string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Error().Err(err).Uint("order_id", order.ID).Str("side_effect", kind).Msg("settlement side effect failed")
				s.auditSideEffect(order, kind+"_failed", err.Error())
			}
		}()
	}

	run("cart_clear", func() error {
		return s.carts.Clear(order.UserID)
	})
	if meta.GiftCardCode != "" && meta.GiftCardCents > 0 {
		run("gift_card_debit", func() error {
			_, err := s.ledger.DebitGiftCard(meta.GiftCardCode, meta.GiftCardCents)
			return err
		})
	}
	if meta.PromoCode != "" {
		run("promotion_usage", func() error {
			ok, err := s.promotions.IncrementUsage(meta.PromoCode)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("promotion %q at usage ceiling", meta.PromoCode)
			}
			return nil
		})
	}
	if meta.CreditCents > 0 {
		run("credit_debit", func() error {
			_, err := s.ledger.DebitCredit(order.UserID, meta.CreditCents, order.OrderNumber)
			return err
		})
	}
	if meta.ReferralEligible {
		run("referral_conversion", func() error {
			res, err := s.referrals.TryConvert(order.UserID, order.ID, order.OrderNumber)
			if err != nil {
				return err
			}
			if res != nil && res.Converted {
				s.auditSideEffect(order, "referral_converted", strconv.FormatUint(uint64(res.ReferrerID), 10))
				go s.notifier.NotifyReferralConverted(res.ReferrerID, res.RewardCents, order.OrderNumber)
			}
			return nil
		})
	}
	wg.Wait()
}

// createOrder returns the pre-existing order when a racing duplicate
// delivery won the unique index on payment_ref.
func (s *SettlementService) createOrder(order *models.Order, items []models.OrderItem) (*models.Order, error) {
	err := s.orders.Create(order, items)
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := s.orders.FindByPaymentRef(order.PaymentRef)
		if findErr == nil && existing != nil {
			log.Info().Str("payment_ref", order.PaymentRef).Msg("lost creation race to duplicate delivery, treating as settled")
			return existing, nil
		}
	}
	return nil, fmt.Errorf("create order: %w", err)
}

func (s *SettlementService) auditSideEffect(order *models.Order, action, detail string) {
	if err := s.audit.Create(&models.AuditLog{
		UserID:     &order.UserID,
		Action:     action,
		Resource:   "order",
		ResourceID: order.OrderNumber,
		Detail:     detail,
	}); err != nil {
		log.Error().Err(err).Str("action", action).Msg("audit write failed")
	}
}

func (s *SettlementService) expiryMonths() int {
	raw, err := s.settings.Get(domain.SettingGiftCardExpiryMonths)
	if err != nil || raw == "" {
		return 12
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 12
	}
	return n
}

func normalizeCurrency(c string) string {
	if len(c) != 3 {
		return "EUR"
	}
	return strings.ToUpper(c)
}
