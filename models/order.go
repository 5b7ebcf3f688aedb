package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderType string

const (
	OrderTypeOnline OrderType = "online" // paid checkout
	OrderTypeText   OrderType = "text"   // logged from a text or phone call
)

// Order is an immutable priced snapshot of a cart. Only Status and the
// timestamps change after creation.
type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OrderNumber          string          `gorm:"uniqueIndex;size:40;not null" json:"orderNumber"`
	UserID               string          `gorm:"index;size:128;not null" json:"userId"`
	Type                 OrderType       `gorm:"type:varchar(10);not null" json:"type"`
	Status               OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	DeliveryAddress      Address         `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress"`
	DeliveryInstructions string          `gorm:"size:500" json:"deliveryInstructions,omitempty"`
	ContactPhone         string          `gorm:"size:20" json:"contactPhone,omitempty"`
	ContactEmail         string          `json:"contactEmail,omitempty"`
	Notes                string          `gorm:"type:text" json:"notes,omitempty"`
	Subtotal             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax                  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	DeliveryFee          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"deliveryFee"`
	Tip                  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tip"`
	Total                decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	PaymentIntentID      string          `gorm:"index;size:128" json:"paymentIntentId,omitempty"`
	CancelledAt          *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt            time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// OrderItem is a frozen cart line; it never reads the live catalog again.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"-"`
	ProductID string          `gorm:"size:64;not null" json:"productId"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
}

// OrderFilter selects orders for listing. Zero values mean "any".
type OrderFilter struct {
	UserID    string
	Status    OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
