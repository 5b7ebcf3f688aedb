package repository

import (
	"context"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A second review by the same user for the same
// product yields ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	return translate(r.db.WithContext(ctx).Create(rv).Error)
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rv *models.Review) error {
	return translate(r.db.WithContext(ctx).Save(rv).Error)
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return reviews, total, nil
}

// Aggregate returns the mean rating and number of reviews for a product.
func (r *ReviewRepository) Aggregate(ctx context.Context, productID string) (float64, int64, error) {
	var agg struct {
		Average float64
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, translate(err)
	}
	return agg.Average, agg.Total, nil
}
