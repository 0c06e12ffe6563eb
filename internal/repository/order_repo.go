package repository

import (
	"time"

	"bottega/internal/domain"
	"bottega/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists an order together with its items in one transaction.
// A duplicate payment_ref surfaces as gorm.ErrDuplicatedKey.
func (r *OrderRepository) Create(o *models.Order, items []models.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByPaymentRef is the idempotency check: the payment reference is the
// natural dedup key for webhook redeliveries.
func (r *OrderRepository) FindByPaymentRef(ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("payment_ref = ?", ref).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *OrderRepository) ListByStatus(status string, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// ListDispatchable returns physical-goods orders still confirmed and older
// than minAge, for the background dispatch worker.
func (r *OrderRepository) ListDispatchable(minAge time.Duration, limit int) ([]models.Order, error) {
	cutoff := time.Now().Add(-minAge)
	var list []models.Order
	err := r.db.Where("status = ? AND digital_only = ? AND created_at < ?", domain.OrderStatusConfirmed, false, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// MarkShipped transitions confirmed -> shipped with tracking details.
// RowsAffected 0 means the order was not in confirmed anymore.
func (r *OrderRepository) MarkShipped(orderID uint, courierName, trackingNo string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderStatusConfirmed).
		Updates(map[string]interface{}{
			"status":       domain.OrderStatusShipped,
			"courier_name": courierName,
			"tracking_no":  trackingNo,
			"shipped_at":   &now,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkManualReview transitions confirmed -> manual_review with a reason a
// human can act on.
func (r *OrderRepository) MarkManualReview(orderID uint, reason string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderStatusConfirmed).
		Updates(map[string]interface{}{
			"status":        domain.OrderStatusManualReview,
			"review_reason": reason,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *OrderRepository) UpdateStatus(orderID uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

// CountCompletedByUser counts the user's settled orders, excluding one order
// id (the order currently being settled) so referral conversion can test
// "first order" without racing its own insert.
func (r *OrderRepository) CountCompletedByUser(userID uint, excludeOrderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("user_id = ? AND id <> ?", userID, excludeOrderID).
		Count(&count).Error
	return count, err
}
