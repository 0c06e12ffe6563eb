package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralCode is a unique invite code belonging to a user.
// Each user has at most one referral code.
type ReferralCode struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Code      string         `gorm:"uniqueIndex;size:20;not null" json:"code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

// Referral links a referrer to a referee. It transitions pending -> converted
// exactly once, on the referee's first completed order; the conditional update
// in the repository is what makes the transition race-free.
type Referral struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ReferrerID       uint           `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID   uint           `gorm:"uniqueIndex;not null" json:"referred_user_id"` // each user can only be referred once
	Status           string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ConvertedOrderID *uint          `json:"converted_order_id,omitempty"`
	ConvertedAt      *time.Time     `json:"converted_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Referrer     User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUser User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
