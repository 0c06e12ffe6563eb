package repository

import (
	"time"

	"bottega/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) GetByUserID(userID uint) (*models.UserCredit, error) {
	var c models.UserCredit
	err := r.db.Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CreditRepository) GetOrCreate(userID uint) (*models.UserCredit, error) {
	c, err := r.GetByUserID(userID)
	if err == nil {
		return c, nil
	}
	c = &models.UserCredit{UserID: userID, BalanceCents: 0, Currency: "EUR"}
	if err := r.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDelta mutates the balance and appends the matching transaction record
// in one database transaction, under a row lock. The two never diverge: if
// the record fails to persist the balance update rolls back with it.
// A negative delta is capped so the balance never goes below zero.
func (r *CreditRepository) ApplyDelta(userID uint, deltaCents int64, txType, orderRef string) (*models.CreditTransaction, error) {
	var record *models.CreditTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var c models.UserCredit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&c).Error; err != nil {
			return err
		}
		before := c.BalanceCents
		after := before + deltaCents
		applied := deltaCents
		if after < 0 {
			after = 0
			applied = -before
		}
		if err := tx.Model(&c).Updates(map[string]interface{}{
			"balance_cents": after,
			"updated_at":    time.Now(),
		}).Error; err != nil {
			return err
		}
		record = &models.CreditTransaction{
			UserID:             userID,
			AmountCents:        applied,
			BalanceBeforeCents: before,
			BalanceAfterCents:  after,
			Type:               txType,
			OrderRef:           orderRef,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *CreditRepository) ListTransactions(userID uint, limit, offset int) ([]models.CreditTransaction, error) {
	var list []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
