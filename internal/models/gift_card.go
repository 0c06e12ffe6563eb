package models

import (
	"time"

	"gorm.io/gorm"
)

// GiftCard holds a prepaid balance. Invariant: 0 <= balance <= amount,
// and is_active is true exactly while balance > 0 (and not expired).
type GiftCard struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	RedemptionToken string         `gorm:"size:64;uniqueIndex;not null" json:"-"` // opaque, for QR lookup
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	BalanceCents    int64          `gorm:"not null" json:"balance_cents"`
	Currency        string         `gorm:"size:3;default:'EUR'" json:"currency"`
	IsActive        bool           `gorm:"not null;default:true;index" json:"is_active"`
	RecipientEmail  string         `gorm:"size:255" json:"recipient_email"`
	RecipientName   string         `gorm:"size:120" json:"recipient_name"`
	SenderName      string         `gorm:"size:120" json:"sender_name"`
	Message         string         `gorm:"size:500" json:"message"`
	PurchaseOrderID uint           `gorm:"index" json:"purchase_order_id"`
	ExpiresAt       time.Time      `json:"expires_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GiftCard) TableName() string {
	return "gift_cards"
}

// IssuedGiftCardCode is the persistent blacklist of every code ever handed
// out. Uniqueness is enforced here by the database, not in process memory.
type IssuedGiftCardCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func (IssuedGiftCardCode) TableName() string {
	return "issued_gift_card_codes"
}
