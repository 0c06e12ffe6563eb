package models

import (
	"time"

	"gorm.io/gorm"
)

// UserCredit is the live store-credit balance, one row per user.
// Only the ledger service mutates it.
type UserCredit struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCents int64          `gorm:"not null;default:0" json:"balance_cents"`
	Currency     string         `gorm:"size:3;default:'EUR'" json:"currency"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserCredit) TableName() string {
	return "user_credits"
}

// CreditTransaction is the append-only audit trail paired with every balance
// mutation. BalanceBefore/BalanceAfter make the running balance reconstructible.
type CreditTransaction struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	AmountCents        int64     `gorm:"not null" json:"amount_cents"` // positive = credit, negative = debit
	BalanceBeforeCents int64     `gorm:"not null" json:"balance_before_cents"`
	BalanceAfterCents  int64     `gorm:"not null" json:"balance_after_cents"`
	Type               string    `gorm:"size:30;not null;index" json:"type"` // PURCHASE, REFERRAL_REWARD
	OrderRef           string    `gorm:"size:128" json:"order_ref"`          // order number that caused the mutation
	CreatedAt          time.Time `json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
