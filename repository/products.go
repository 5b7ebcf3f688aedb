package repository

import (
	"context"
	"strings"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(productFilter(f)).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := r.db.WithContext(ctx).Scopes(productFilter(f))
	switch f.Sort {
	case models.SortPriceAsc:
		q = q.Order("price ASC")
	case models.SortPriceDesc:
		q = q.Order("price DESC")
	case models.SortRating:
		q = q.Order("rating DESC").Order("review_count DESC")
	case models.SortNewest:
		q = q.Order("created_at DESC")
	default:
		q = q.Order("name ASC")
	}
	q = q.Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, translate(err)
	}
	return products, total, nil
}

// Upsert inserts the product or overwrites every catalog column except the
// review cache.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "brand", "description", "price", "image_url",
				"strain", "thc_percent", "cbd_percent", "weight_grams", "in_stock", "updated_at",
			}),
		}).
		Create(p).Error)
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id string, rating float64, count int64) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "review_count": count}).Error)
}

func productFilter(f models.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
		}
		if f.MinPrice != nil {
			db = db.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price <= ?", *f.MaxPrice)
		}
		if f.InStock != nil {
			db = db.Where("in_stock = ?", *f.InStock)
		}
		return db
	}
}
