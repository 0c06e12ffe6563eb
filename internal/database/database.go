package database

import (
	"bottega/config"
	"bottega/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		// Unique-key violations surface as gorm.ErrDuplicatedKey; settlement
		// relies on this to collapse racing duplicate deliveries.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.GiftCard{},
		&models.IssuedGiftCardCode{},
		&models.Promotion{},
		&models.UserCredit{},
		&models.CreditTransaction{},
		&models.ReferralCode{},
		&models.Referral{},
		&models.CartItem{},
		&models.Notification{},
		&models.AuditLog{},
		&models.SystemSetting{},
	)
}
