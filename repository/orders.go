package repository

import (
	"context"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items in one transaction. A clashing
// order number yields ErrDuplicate.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", byID).
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", byID).
		First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// List returns one page of orders, newest first, and the total matching count.
func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(orderFilter(f)).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := r.db.WithContext(ctx).
		Scopes(orderFilter(f)).
		Preload("Items", byID).
		Order("created_at DESC").
		Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, translate(err)
	}
	return orders, total, nil
}

// UpdateStatusIf moves the order to `to` only while it is still in `from`.
func (r *OrderRepository) UpdateStatusIf(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if to == models.OrderStatusCancelled {
		updates["cancelled_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func orderFilter(f models.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.UserID != "" {
			db = db.Where("user_id = ?", f.UserID)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.StartDate != nil {
			db = db.Where("created_at >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			db = db.Where("created_at <= ?", *f.EndDate)
		}
		return db
	}
}
