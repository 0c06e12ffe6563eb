package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is created exactly once per unique payment reference. Monetary fields
// are immutable after creation; only status and tracking fields transition.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderNumber   string         `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Status        string         `gorm:"size:20;not null;index" json:"status"` // confirmed, processing, shipped, delivered, manual_review
	SubtotalCents int64          `gorm:"not null" json:"subtotal_cents"`
	DiscountCents int64          `gorm:"not null;default:0" json:"discount_cents"`
	ShippingCents int64          `gorm:"not null;default:0" json:"shipping_cents"`
	TotalCents    int64          `gorm:"not null" json:"total_cents"` // total = subtotal - discount + shipping
	Currency      string         `gorm:"size:3;default:'EUR'" json:"currency"`
	Provider      string         `gorm:"size:50;not null" json:"provider"`
	PaymentRef    string         `gorm:"size:255;uniqueIndex;not null" json:"payment_ref"`
	PromoCode     string         `gorm:"size:40" json:"promo_code,omitempty"`
	DigitalOnly   bool           `gorm:"not null;default:false" json:"digital_only"`
	ShipName      string         `gorm:"size:120" json:"ship_name,omitempty"`
	ShipStreet    string         `gorm:"size:255" json:"ship_street,omitempty"`
	ShipCity      string         `gorm:"size:120" json:"ship_city,omitempty"`
	ShipZip       string         `gorm:"size:20" json:"ship_zip,omitempty"`
	ShipCountry   string         `gorm:"size:2" json:"ship_country,omitempty"`
	CourierName   string         `gorm:"size:40" json:"courier_name,omitempty"`
	TrackingNo    string         `gorm:"size:80" json:"tracking_no,omitempty"`
	ReviewReason  string         `gorm:"size:255" json:"review_reason,omitempty"`
	ShippedAt     *time.Time     `json:"shipped_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	User  User        `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	ProductID      uint      `gorm:"not null" json:"product_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
