package repository

import (
	"bottega/internal/models"

	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var list []models.CartItem
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *CartRepository) Add(item *models.CartItem) error {
	return r.db.Create(item).Error
}

func (r *CartRepository) Remove(userID, itemID uint) error {
	return r.db.Where("user_id = ? AND id = ?", userID, itemID).Delete(&models.CartItem{}).Error
}

// Clear empties the user's active cart. Called from settlement fan-out after
// the paid order is durable.
func (r *CartRepository) Clear(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
