package repository

import (
	"context"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// FindByUser loads the cart with its items in insertion order.
func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", byID).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

// Create inserts an empty cart for userID, or returns the existing one.
func (r *CartRepository) Create(ctx context.Context, userID string) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindByUser(ctx, userID)
}

// SaveItem inserts a new line or updates an existing one.
func (r *CartRepository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return translate(r.db.WithContext(ctx).Save(item).Error)
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID uint, productID string) error {
	return translate(r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error)
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return translate(r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error)
}

// Touch bumps the cart modification time.
func (r *CartRepository) Touch(ctx context.Context, cartID uint, at time.Time) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("cart_id = ?", cartID).
		Update("updated_at", at).Error)
}
