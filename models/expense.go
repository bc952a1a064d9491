package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense is a single transaction logged by a user.
type Expense struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	Amount        float64        `json:"amount" gorm:"type:decimal(10,2);not null"`
	Category      string         `json:"category" gorm:"size:50;not null;index"`
	Date          time.Time      `json:"date" gorm:"not null;index"`
	PaymentMethod string         `json:"payment_method" gorm:"size:50;not null"`
	Notes         string         `json:"notes" gorm:"size:500"`
	Recurrence    string         `json:"recurrence" gorm:"size:20;default:none"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	User          User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName sets the table name.
func (Expense) TableName() string {
	return "expenses"
}

// Expense categories. The set and casing are fixed; the frontend and the
// analyzer service both match on the exact strings.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryShopping       = "Shopping"
	CategoryEntertainment  = "Entertainment"
	CategoryHealthcare     = "Healthcare"
	CategoryEducation      = "Education"
	CategoryHousing        = "Housing"
	CategoryUtilities      = "Utilities"
	CategoryInsurance      = "Insurance"
	CategoryTravel         = "Travel"
	CategoryGifts          = "Gifts"
	CategoryOther          = "Other"
)

// Payment methods, same contract as categories.
const (
	PaymentCash          = "Cash"
	PaymentCreditCard    = "Credit Card"
	PaymentDebitCard     = "Debit Card"
	PaymentUPI           = "UPI"
	PaymentBankTransfer  = "Bank Transfer"
	PaymentDigitalWallet = "Digital Wallet"
	PaymentOther         = "Other"
)

// Recurrence tags.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// GetCategories returns all expense categories.
func GetCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryHealthcare,
		CategoryEducation,
		CategoryHousing,
		CategoryUtilities,
		CategoryInsurance,
		CategoryTravel,
		CategoryGifts,
		CategoryOther,
	}
}

// GetPaymentMethods returns all payment methods.
func GetPaymentMethods() []string {
	return []string{
		PaymentCash,
		PaymentCreditCard,
		PaymentDebitCard,
		PaymentUPI,
		PaymentBankTransfer,
		PaymentDigitalWallet,
		PaymentOther,
	}
}

// GetRecurrences returns all recurrence tags.
func GetRecurrences() []string {
	return []string{
		RecurrenceNone,
		RecurrenceDaily,
		RecurrenceWeekly,
		RecurrenceMonthly,
		RecurrenceYearly,
	}
}

// ValidCategory reports whether name is a known expense category.
func ValidCategory(name string) bool {
	for _, c := range GetCategories() {
		if c == name {
			return true
		}
	}
	return false
}

// ValidPaymentMethod reports whether name is a known payment method.
func ValidPaymentMethod(name string) bool {
	for _, m := range GetPaymentMethods() {
		if m == name {
			return true
		}
	}
	return false
}

// ValidRecurrence reports whether tag is a known recurrence tag.
func ValidRecurrence(tag string) bool {
	for _, r := range GetRecurrences() {
		if r == tag {
			return true
		}
	}
	return false
}
