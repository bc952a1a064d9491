// Package stats is the read-side computation pipeline: aggregation queries
// over the expenses table, budget evaluation inputs and monthly report
// generation. Everything here is a one-shot query with no side effects on
// the primary store.
package stats

import (
	"fmt"
	"regexp"
	"time"

	"fintrack/models"

	"gorm.io/gorm"
)

// Engine runs aggregation queries against the primary store. It holds no
// state beyond the injected handle and is safe for concurrent use.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates an aggregation engine on the given store handle.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// CategoryTotal is one row of a per-category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int64   `json:"count"`
}

// PaymentMethodTotal is one row of a per-payment-method breakdown.
type PaymentMethodTotal struct {
	PaymentMethod string  `json:"payment_method"`
	Total         float64 `json:"total"`
	Count         int64   `json:"count"`
}

// MonthTotal is one entry of a monthly trend, grouped by calendar month.
type MonthTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthWindow converts a "YYYY-MM" month into its inclusive calendar
// window: first day 00:00:00 through last day 23:59:59. Month lengths,
// leap-year February included, come from real calendar arithmetic, never
// from string-built dates.
func MonthWindow(month string) (time.Time, time.Time, error) {
	if !monthPattern.MatchString(month) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format %q, want YYYY-MM", month)
	}
	start, err := time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}

// CurrentMonth returns now's month in "YYYY-MM" form.
func CurrentMonth(now time.Time) string {
	return now.Format("2006-01")
}

// scoped builds the base query for one owner over an inclusive date range.
func (e *Engine) scoped(userID uint, start, end time.Time) *gorm.DB {
	return e.db.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end)
}

// Total returns the summed amount over the range, optionally narrowed to a
// single category. An empty result set sums to 0.
func (e *Engine) Total(userID uint, start, end time.Time, category string) (float64, error) {
	q := e.scoped(userID, start, end)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var total float64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CategoryBreakdown returns per-category totals over the range, ordered by
// descending total. Ties break lexicographically by category name so the
// ordering is deterministic.
func (e *Engine) CategoryBreakdown(userID uint, start, end time.Time) ([]CategoryTotal, error) {
	rows := make([]CategoryTotal, 0)
	err := e.scoped(userID, start, end).
		Select("category, SUM(amount) as total, COUNT(*) as count").
		Group("category").
		Order("total DESC, category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PaymentMethodBreakdown returns per-payment-method totals over the range,
// descending by total with the same lexicographic tie-break. limit <= 0
// means no limit.
func (e *Engine) PaymentMethodBreakdown(userID uint, start, end time.Time, limit int) ([]PaymentMethodTotal, error) {
	rows := make([]PaymentMethodTotal, 0)
	q := e.scoped(userID, start, end).
		Select("payment_method, SUM(amount) as total, COUNT(*) as count").
		Group("payment_method").
		Order("total DESC, payment_method ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TopCategory returns the highest-spending category over the range.
// ok is false when the range holds no expenses.
func (e *Engine) TopCategory(userID uint, start, end time.Time) (name string, amount float64, ok bool, err error) {
	rows, err := e.CategoryBreakdown(userID, start, end)
	if err != nil {
		return "", 0, false, err
	}
	if len(rows) == 0 {
		return "", 0, false, nil
	}
	return rows[0].Category, rows[0].Total, true, nil
}

// MonthlyTrend returns totals grouped by (year, month) for the trailing
// months calendar months ending at now's month, sorted chronologically
// ascending. Months without expenses are absent, not zero-filled.
func (e *Engine) MonthlyTrend(userID uint, months int, now time.Time) ([]MonthTotal, error) {
	if months <= 0 {
		months = 6
	}
	firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := firstOfCurrent.AddDate(0, -(months - 1), 0)
	end := firstOfCurrent.AddDate(0, 1, 0).Add(-time.Second)

	rows := make([]MonthTotal, 0)
	err := e.scoped(userID, start, end).
		Select("YEAR(date) as year, MONTH(date) as month, SUM(amount) as total").
		Group("YEAR(date), MONTH(date)").
		Order("year ASC, month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
