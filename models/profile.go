package models

import "time"

type HouseType string

const (
	HouseTypeHouse     HouseType = "house"
	HouseTypeApartment HouseType = "apartment"
	HouseTypeCondo     HouseType = "condo"
	HouseTypeTownhouse HouseType = "townhouse"
	HouseTypeOther     HouseType = "other"
)

type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodDebit PaymentMethod = "debit"
)

type VerificationStatus string

const (
	VerificationUnverified    VerificationStatus = "unverified"
	VerificationPending       VerificationStatus = "pending"
	VerificationRequiresInput VerificationStatus = "requires_input"
	VerificationVerified      VerificationStatus = "verified"
)

// Address is embedded in profiles and frozen into orders.
type Address struct {
	HouseType   HouseType `gorm:"type:varchar(20)" json:"houseType,omitempty" validate:"omitempty,oneof=house apartment condo townhouse other"`
	HouseNumber string    `gorm:"size:20" json:"houseNumber" validate:"required,max=20"`
	Street      string    `json:"street" validate:"required,max=120"`
	Apartment   string    `gorm:"size:20" json:"apartment,omitempty" validate:"max=20"`
	City        string    `gorm:"size:80" json:"city" validate:"required,max=80"`
	State       string    `gorm:"size:2" json:"state" validate:"required,len=2,alpha"`
	Zip         string    `gorm:"size:5" json:"zip" validate:"required,len=5,numeric"`
}

// Complete reports whether the address can be delivered to.
func (a Address) Complete() bool {
	return a.HouseNumber != "" && a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}

// UserProfile is created lazily the first time a user is seen.
type UserProfile struct {
	ID                     uint               `gorm:"primaryKey" json:"id"`
	UserID                 string             `gorm:"uniqueIndex;size:128;not null" json:"userId"`
	Email                  string             `json:"email,omitempty"`
	Phone                  string             `gorm:"size:20" json:"phone,omitempty"`
	Address                Address            `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	DeliveryInstructions   string             `gorm:"size:500" json:"deliveryInstructions,omitempty"`
	PreferredPaymentMethod PaymentMethod      `gorm:"type:varchar(20)" json:"preferredPaymentMethod,omitempty"`
	VerificationStatus     VerificationStatus `gorm:"type:varchar(20);not null" json:"verificationStatus"`
	VerificationSessionID  string             `gorm:"index;size:128" json:"-"`
	VerifiedAt             *time.Time         `json:"verifiedAt,omitempty"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
}
