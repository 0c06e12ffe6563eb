package repository

import (
	"time"

	"bottega/internal/domain"
	"bottega/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) CreateCode(rc *models.ReferralCode) error {
	return r.db.Create(rc).Error
}

func (r *ReferralRepository) GetCodeByUserID(userID uint) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.Where("user_id = ?", userID).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// GetByCode returns an active ReferralCode record matching the given code string.
func (r *ReferralRepository) GetByCode(code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.Where("code = ? AND is_active = ?", code, true).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// CodeExists reports whether any user already owns the given invite code.
func (r *ReferralRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ReferralCode{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// CreateReferral persists a new pending referral relationship.
func (r *ReferralRepository) CreateReferral(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

func (r *ReferralRepository) GetByReferredUserID(userID uint) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.Where("referred_user_id = ?", userID).First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// MarkConverted flips pending -> converted with a conditional update. The
// WHERE clause is the compare-and-set: under concurrent duplicate deliveries
// of the referee's first order, exactly one caller sees RowsAffected == 1.
func (r *ReferralRepository) MarkConverted(referredUserID, orderID uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Referral{}).
		Where("referred_user_id = ? AND status = ?", referredUserID, domain.ReferralStatusPending).
		Updates(map[string]interface{}{
			"status":             domain.ReferralStatusConverted,
			"converted_order_id": orderID,
			"converted_at":       &now,
		})
	return res.RowsAffected == 1, res.Error
}

// ListByReferrerID returns all referrals created by the given referrer, with referred user preloaded.
func (r *ReferralRepository) ListByReferrerID(referrerID uint, limit, offset int) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.Where("referrer_id = ?", referrerID).
		Preload("ReferredUser").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
