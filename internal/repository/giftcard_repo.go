package repository

import (
	"time"

	"bottega/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GiftCardRepository struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) *GiftCardRepository {
	return &GiftCardRepository{db: db}
}

// CodeIssued checks the persistent blacklist of every code ever handed out.
func (r *GiftCardRepository) CodeIssued(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.IssuedGiftCardCode{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// Create persists the gift card and registers its code in the blacklist in
// one transaction. The blacklist's unique index is the final arbiter against
// a concurrent issuance of the same code.
func (r *GiftCardRepository) Create(gc *models.GiftCard) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.IssuedGiftCardCode{Code: gc.Code}).Error; err != nil {
			return err
		}
		return tx.Create(gc).Error
	})
}

func (r *GiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	var gc models.GiftCard
	err := r.db.Where("code = ?", code).First(&gc).Error
	if err != nil {
		return nil, err
	}
	return &gc, nil
}

func (r *GiftCardRepository) GetByToken(token string) (*models.GiftCard, error) {
	var gc models.GiftCard
	err := r.db.Where("redemption_token = ?", token).First(&gc).Error
	if err != nil {
		return nil, err
	}
	return &gc, nil
}

// DebitBalance atomically caps the balance at zero and deactivates the card
// when it empties. Runs with a row lock so two concurrent settlements cannot
// interleave their read-modify-write.
func (r *GiftCardRepository) DebitBalance(code string, amountCents int64) (int64, error) {
	var newBalance int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var gc models.GiftCard
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&gc).Error; err != nil {
			return err
		}
		newBalance = gc.BalanceCents - amountCents
		if newBalance < 0 {
			newBalance = 0
		}
		updates := map[string]interface{}{
			"balance_cents": newBalance,
			"updated_at":    time.Now(),
		}
		if newBalance == 0 {
			updates["is_active"] = false
		}
		return tx.Model(&gc).Updates(updates).Error
	})
	return newBalance, err
}
