package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// ErrBadMetadata marks a rejectable event: the payload authenticated fine
// but its metadata cannot be turned into a valid settlement.
var ErrBadMetadata = errors.New("malformed checkout metadata")

// CheckoutEvent is the signed payload the payment processor delivers.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// EventTypeCheckoutCompleted is the only event type that settles.
const EventTypeCheckoutCompleted = "checkout.session.completed"

type CheckoutSession struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"` // authoritative, in cents
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// PaymentRef is the idempotency key for deduplication: the payment intent
// when present, otherwise the session id.
func (s CheckoutSession) PaymentRef() string {
	if s.PaymentIntent != "" {
		return s.PaymentIntent
	}
	return s.ID
}

type LineItem struct {
	ProductID      uint   `json:"product_id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Quantity       int    `json:"quantity" validate:"gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

type ShippingAddress struct {
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required,len=2"`
}

// CheckoutMetadata is the eagerly-parsed, validated form of the loose
// key/value bag the event carries. Parse failure is rejectable; nothing
// downstream ever sees a half-parsed map.
type CheckoutMetadata struct {
	UserID           uint   `validate:"required"`
	PurchaseType     string `validate:"required,oneof=merchandise gift_card"`
	Items            []LineItem
	Shipping         *ShippingAddress
	DiscountCents    int64 `validate:"gte=0"`
	ShippingCents    int64 `validate:"gte=0"`
	PromoCode        string
	GiftCardCode     string // gift card spent on this order
	GiftCardCents    int64  `validate:"gte=0"`
	CreditCents      int64  `validate:"gte=0"`
	ReferralEligible bool

	// gift-card purchase fields
	RecipientEmail string
	RecipientName  string
	SenderName     string
	GiftMessage    string
}

var validate = validator.New()

// ParseCheckoutMetadata decodes the metadata map into a typed structure.
// All returned errors wrap ErrBadMetadata.
func ParseCheckoutMetadata(meta map[string]string) (*CheckoutMetadata, error) {
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata", ErrBadMetadata)
	}
	m := &CheckoutMetadata{
		PurchaseType:   meta["purchase_type"],
		PromoCode:      meta["promo_code"],
		GiftCardCode:   meta["gift_card_code"],
		RecipientEmail: meta["recipient_email"],
		RecipientName:  meta["recipient_name"],
		SenderName:     meta["sender_name"],
		GiftMessage:    meta["gift_message"],
	}
	userID, err := strconv.ParseUint(meta["user_id"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id %q", ErrBadMetadata, meta["user_id"])
	}
	m.UserID = uint(userID)
	for key, dst := range map[string]*int64{
		"discount_cents":  &m.DiscountCents,
		"shipping_cents":  &m.ShippingCents,
		"gift_card_cents": &m.GiftCardCents,
		"credit_cents":    &m.CreditCents,
	} {
		if raw, ok := meta[key]; ok && raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q", ErrBadMetadata, key, raw)
			}
			*dst = n
		}
	}
	m.ReferralEligible = meta["referral_eligible"] == "true"

	if raw := meta["items"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.Items); err != nil {
			return nil, fmt.Errorf("%w: items: %v", ErrBadMetadata, err)
		}
	}
	if raw := meta["shipping_address"]; raw != "" {
		var addr ShippingAddress
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			return nil, fmt.Errorf("%w: shipping_address: %v", ErrBadMetadata, err)
		}
		m.Shipping = &addr
	}

	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}
	if m.PurchaseType == "merchandise" {
		if len(m.Items) == 0 {
			return nil, fmt.Errorf("%w: merchandise purchase without items", ErrBadMetadata)
		}
		if m.Shipping == nil {
			return nil, fmt.Errorf("%w: merchandise purchase without shipping address", ErrBadMetadata)
		}
		for i, it := range m.Items {
			if err := validate.Struct(it); err != nil {
				return nil, fmt.Errorf("%w: item %d: %v", ErrBadMetadata, i, err)
			}
		}
		if err := validate.Struct(m.Shipping); err != nil {
			return nil, fmt.Errorf("%w: shipping_address: %v", ErrBadMetadata, err)
		}
	}
	if m.PurchaseType == "gift_card" && m.RecipientEmail == "" {
		return nil, fmt.Errorf("%w: gift card purchase without recipient_email", ErrBadMetadata)
	}
	return m, nil
}
