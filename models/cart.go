package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxItemQuantity bounds the quantity of a single cart line.
const MaxItemQuantity = 99

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"uniqueIndex;size:128;not null" json:"userId"`                // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"` // cascade delete items with the cart
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	CartID    uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"-"`
	ProductID string          `gorm:"uniqueIndex:idx_cart_product;size:64;not null" json:"productId"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Find returns the line for productID, or nil.
func (c *Cart) Find(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
