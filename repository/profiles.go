package repository

import (
	"context"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindByUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Create inserts p unless a profile already exists for the user, and returns
// the stored row either way.
func (r *ProfileRepository) Create(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindByUser(ctx, p.UserID)
}

func (r *ProfileRepository) Save(ctx context.Context, p *models.UserProfile) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}
