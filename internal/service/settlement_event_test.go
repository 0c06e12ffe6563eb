package service

import (
	"errors"
	"testing"
)

func validMerchandiseMeta() map[string]string {
	return map[string]string{
		"user_id":          "7",
		"purchase_type":    "merchandise",
		"items":            `[{"product_id":3,"name":"Ceramic vase","quantity":2,"unit_price_cents":4500}]`,
		"shipping_address": `{"name":"Anna Rossi","street":"Via Roma 1","city":"Milano","zip":"20121","country":"IT"}`,
		"discount_cents":   "1500",
		"shipping_cents":   "500",
		"promo_code":       "SPRING",
	}
}

func TestParseCheckoutMetadataMerchandise(t *testing.T) {
	m, err := ParseCheckoutMetadata(validMerchandiseMeta())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.UserID != 7 || m.PurchaseType != "merchandise" {
		t.Fatalf("unexpected parse result: %+v", m)
	}
	if len(m.Items) != 1 || m.Items[0].Quantity != 2 {
		t.Fatalf("items not decoded: %+v", m.Items)
	}
	if m.Shipping == nil || m.Shipping.Country != "IT" {
		t.Fatalf("shipping not decoded: %+v", m.Shipping)
	}
	if m.DiscountCents != 1500 || m.ShippingCents != 500 {
		t.Fatalf("amounts not decoded: %+v", m)
	}
}

func TestParseCheckoutMetadataRejections(t *testing.T) {
	cases := map[string]func(map[string]string){
		"missing user_id":        func(m map[string]string) { delete(m, "user_id") },
		"non-numeric user_id":    func(m map[string]string) { m["user_id"] = "seven" },
		"unknown purchase type":  func(m map[string]string) { m["purchase_type"] = "subscription" },
		"malformed items json":   func(m map[string]string) { m["items"] = "{not json" },
		"empty items":            func(m map[string]string) { m["items"] = "[]" },
		"missing address":        func(m map[string]string) { delete(m, "shipping_address") },
		"bad country code":       func(m map[string]string) { m["shipping_address"] = `{"name":"A","street":"B","city":"C","zip":"D","country":"ITA"}` },
		"negative discount":      func(m map[string]string) { m["discount_cents"] = "-100" },
		"non-numeric discount":   func(m map[string]string) { m["discount_cents"] = "abc" },
		"zero quantity line":     func(m map[string]string) { m["items"] = `[{"product_id":3,"name":"x","quantity":0,"unit_price_cents":100}]` },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			meta := validMerchandiseMeta()
			mutate(meta)
			if _, err := ParseCheckoutMetadata(meta); !errors.Is(err, ErrBadMetadata) {
				t.Fatalf("expected ErrBadMetadata, got %v", err)
			}
		})
	}
}

func TestParseCheckoutMetadataNilMap(t *testing.T) {
	if _, err := ParseCheckoutMetadata(nil); !errors.Is(err, ErrBadMetadata) {
		t.Fatalf("expected ErrBadMetadata, got %v", err)
	}
}

func TestParseCheckoutMetadataGiftCard(t *testing.T) {
	m, err := ParseCheckoutMetadata(map[string]string{
		"user_id":         "7",
		"purchase_type":   "gift_card",
		"recipient_email": "nonna@example.it",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.PurchaseType != "gift_card" {
		t.Fatalf("purchase type = %q", m.PurchaseType)
	}
}

func TestParseCheckoutMetadataGiftCardNeedsRecipient(t *testing.T) {
	_, err := ParseCheckoutMetadata(map[string]string{
		"user_id":       "7",
		"purchase_type": "gift_card",
	})
	if !errors.Is(err, ErrBadMetadata) {
		t.Fatalf("expected ErrBadMetadata, got %v", err)
	}
}

func TestPaymentRefFallsBackToSessionID(t *testing.T) {
	s := CheckoutSession{ID: "cs_1", PaymentIntent: "pi_1"}
	if s.PaymentRef() != "pi_1" {
		t.Fatal("payment intent should win when present")
	}
	s.PaymentIntent = ""
	if s.PaymentRef() != "cs_1" {
		t.Fatal("session id should be the fallback")
	}
}
