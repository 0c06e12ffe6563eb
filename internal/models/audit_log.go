package models

import (
	"time"
)

// AuditLog records what settlement attempted, side effect by side effect,
// so a failed fan-out can be reconstructed without the response ever
// carrying the failure.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	Action     string    `gorm:"size:60;not null;index" json:"action"`
	Resource   string    `gorm:"size:40;not null" json:"resource"`
	ResourceID string    `gorm:"size:128" json:"resource_id"`
	Detail     string    `gorm:"size:1000" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
