package model

import (
	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodBank      PaymentMethod = "bank"
	PaymentMethodStripe    PaymentMethod = "stripe"
	PaymentMethodGooglePay PaymentMethod = "google_pay"
	PaymentMethodApplePay  PaymentMethod = "apple_pay"
)

func IsValidPaymentMethod(method string) bool {
	switch PaymentMethod(method) {
	case PaymentMethodBank, PaymentMethodStripe, PaymentMethodGooglePay, PaymentMethodApplePay:
		return true
	default:
		return false
	}
}

type User struct {
	ID                     uuid.UUID `gorm:"primaryKey;type:uuid" json:"id"`
	Username               string    `gorm:"uniqueIndex;not null;type:varchar(150)" json:"username"`
	Email                  string    `gorm:"uniqueIndex;not null;type:varchar(254)" json:"email"`
	PasswordHash           string    `gorm:"not null;type:varchar(255)" json:"-"`
	FirstName              string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName               string    `gorm:"type:varchar(150)" json:"last_name"`
	ProfilePhoto           *string   `gorm:"type:varchar(255)" json:"profile_photo"`
	Bio                    string    `gorm:"type:varchar(500)" json:"bio"`
	Phone                  string    `gorm:"type:varchar(50)" json:"phone"`
	DeliveryAddress        string    `gorm:"type:varchar(255)" json:"delivery_address"`
	PreferredPaymentMethod string    `gorm:"type:varchar(20)" json:"preferred_payment_method"`
	BaseModel
}
