package repository

import (
	"bottega/internal/models"

	"gorm.io/gorm"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) GetByCode(code string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.db.Where("code = ? AND is_active = ?", code, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementUsage bumps the usage counter with a single conditional UPDATE,
// never read-modify-write, so concurrent redemptions of a scarce code cannot
// push usage_count past usage_limit. Returns false when the ceiling was hit.
func (r *PromotionRepository) IncrementUsage(code string) (bool, error) {
	res := r.db.Model(&models.Promotion{}).
		Where("code = ? AND (usage_limit = 0 OR usage_count < usage_limit)", code).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *PromotionRepository) Create(p *models.Promotion) error {
	return r.db.Create(p).Error
}
