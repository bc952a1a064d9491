package models

import (
	"fmt"
	"time"
)

// Budget is a per-category spending limit for one calendar month.
// At most one budget may exist per (user, category, month); the composite
// unique index backs the conflict check done in the handler.
//
// A budget never stores its current spend. Spend is always recomputed from
// the expenses table at read time, so a freshly loaded Budget says nothing
// about consumption until it is evaluated against an aggregated total.
// Unlike expenses, budgets carry no soft-delete column: a soft-deleted row
// would keep occupying the unique index and block recreating a budget for
// the same category and month. Deletes are hard deletes.
type Budget struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_budget_owner_cat_month"`
	Category       string    `json:"category" gorm:"size:50;not null;uniqueIndex:idx_budget_owner_cat_month"`
	Amount         float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Month          string    `json:"month" gorm:"size:7;not null;uniqueIndex:idx_budget_owner_cat_month"`
	AlertThreshold float64   `json:"alert_threshold" gorm:"default:80"`
	Active         bool      `json:"active" gorm:"default:true;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	User           User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName sets the table name.
func (Budget) TableName() string {
	return "budgets"
}

// Alert statuses produced by evaluating a budget against its period spend.
const (
	AlertStatusNormal   = "normal"
	AlertStatusWarning  = "warning"
	AlertStatusExceeded = "exceeded"
)

// SpendingPercentage returns spend as a percentage of the budget amount.
// A zero-amount budget always evaluates to 0, whatever the spend.
func (b *Budget) SpendingPercentage(spend float64) float64 {
	if b.Amount <= 0 {
		return 0
	}
	return spend / b.Amount * 100
}

// AlertStatus classifies the period spend: exceeded at or above 100%,
// warning at or above the alert threshold, normal below.
func (b *Budget) AlertStatus(spend float64) string {
	pct := b.SpendingPercentage(spend)
	switch {
	case pct >= 100:
		return AlertStatusExceeded
	case pct >= b.AlertThreshold:
		return AlertStatusWarning
	default:
		return AlertStatusNormal
	}
}

// AlertMessage renders the human-readable alert text for spend.
// Empty for budgets in the normal range.
func (b *Budget) AlertMessage(spend float64) string {
	pct := b.SpendingPercentage(spend)
	switch b.AlertStatus(spend) {
	case AlertStatusExceeded:
		return fmt.Sprintf("You have exceeded your %s budget for %s by %.1f%%", b.Category, b.Month, pct-100)
	case AlertStatusWarning:
		return fmt.Sprintf("You have used %.1f%% of your %s budget for %s", pct, b.Category, b.Month)
	default:
		return ""
	}
}
