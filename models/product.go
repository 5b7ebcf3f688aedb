package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StrainType string

const (
	StrainIndica StrainType = "indica"
	StrainSativa StrainType = "sativa"
	StrainHybrid StrainType = "hybrid"
	StrainNone   StrainType = ""
)

// Product is a catalog entry. Rating and ReviewCount are a cache over the
// reviews table and are refreshed after each review write.
type Product struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id" validate:"required,max=64"`
	Name        string          `gorm:"not null" json:"name" validate:"required,max=200"`
	Category    string          `gorm:"index;size:50" json:"category" validate:"required,max=50"`
	Brand       string          `json:"brand,omitempty" validate:"max=100"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Strain      StrainType      `gorm:"type:varchar(10)" json:"strain,omitempty" validate:"omitempty,oneof=indica sativa hybrid"`
	THCPercent  *float64        `json:"thcPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	CBDPercent  *float64        `json:"cbdPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeightGrams *float64        `json:"weightGrams,omitempty" validate:"omitempty,gte=0"`
	InStock     bool            `gorm:"index" json:"inStock"`
	Rating      float64         `json:"rating"`
	ReviewCount int64           `json:"reviewCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductSort string

const (
	SortName      ProductSort = "name"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortNewest    ProductSort = "newest"
)

type ProductFilter struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  *bool
	Sort     ProductSort
	Limit    int
	Offset   int
}
