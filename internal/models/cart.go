package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem belongs to a user's single active cart. Settlement clears the
// whole cart once the matching order is durable.
type CartItem struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	ProductID      uint           `gorm:"not null" json:"product_id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Quantity       int            `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents int64          `gorm:"not null" json:"unit_price_cents"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
