package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion is a discount code or an automatic discount (empty Code).
// UsageCount moves only through the repository's atomic increment.
type Promotion struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Code             string         `gorm:"size:40;uniqueIndex" json:"code"`
	DiscountType     string         `gorm:"size:20;not null" json:"discount_type"` // percentage, fixed
	DiscountValue    int64          `gorm:"not null" json:"discount_value"`        // percent or cents depending on type
	MinPurchaseCents int64          `gorm:"not null;default:0" json:"min_purchase_cents"`
	UsageLimit       int            `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	PerUserLimit     int            `gorm:"not null;default:0" json:"per_user_limit"`
	UsageCount       int            `gorm:"not null;default:0" json:"usage_count"`
	Categories       string         `gorm:"size:255" json:"categories"` // comma-separated eligible categories
	StartsAt         *time.Time     `json:"starts_at"`
	EndsAt           *time.Time     `json:"ends_at"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Promotion) TableName() string {
	return "promotions"
}
