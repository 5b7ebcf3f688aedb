package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is unique per (product, user).
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  string    `gorm:"uniqueIndex:idx_review_product_user;size:64;not null" json:"productId"`
	UserID     string    `gorm:"uniqueIndex:idx_review_product_user;size:128;not null" json:"userId"`
	Rating     int       `gorm:"not null" json:"rating"`
	Title      string    `gorm:"size:120" json:"title,omitempty"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	AuthorName string    `gorm:"size:80" json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
