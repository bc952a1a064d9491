package api

import (
	"time"

	"fintrack/middleware"
	"fintrack/models"
	"fintrack/stats"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardHandler composes the single-call overview of the current month.
type DashboardHandler struct {
	db     *gorm.DB
	engine *stats.Engine
	now    func() time.Time
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db, engine: stats.NewEngine(db), now: time.Now}
}

// DashboardResponse is the aggregated current-month view.
type DashboardResponse struct {
	Month             string                     `json:"month"`
	TotalSpent        float64                    `json:"total_spent"`
	TopCategory       *stats.CategoryTotal       `json:"top_category"`
	TopPaymentMethods []stats.PaymentMethodTotal `json:"top_payment_methods"`
	CategoryBreakdown []stats.CategoryTotal      `json:"category_breakdown"`
	MonthlyTrend      []stats.MonthTotal         `json:"monthly_trend"`
	Alerts            []BudgetAlert              `json:"alerts"`
}

// Get returns the current-month dashboard
// @Summary Dashboard
// @Description Current-month total, top category, top three payment methods, full category breakdown, six-month trend and active budget alerts in one call
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=DashboardResponse} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	now := h.now()
	month := stats.CurrentMonth(now)

	start, end, err := stats.MonthWindow(month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "resolve month failed"))
		return
	}

	total, err := h.engine.Total(userID, start, end, "")
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	breakdown, err := h.engine.CategoryBreakdown(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}
	// the breakdown is sorted by total, its head is the top category
	var topCategory *stats.CategoryTotal
	if len(breakdown) > 0 {
		topCategory = &breakdown[0]
	}

	paymentMethods, err := h.engine.PaymentMethodBreakdown(userID, start, end, 3)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	trend, err := h.engine.MonthlyTrend(userID, 6, now)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	alerts, err := h.currentAlerts(userID, month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "evaluate budgets failed"))
		return
	}

	Success(c, DashboardResponse{
		Month:             month,
		TotalSpent:        total,
		TopCategory:       topCategory,
		TopPaymentMethods: paymentMethods,
		CategoryBreakdown: breakdown,
		MonthlyTrend:      trend,
		Alerts:            alerts,
	})
}

// currentAlerts evaluates active budgets of the given month and keeps the
// ones past their alert threshold.
func (h *DashboardHandler) currentAlerts(userID uint, month string) ([]BudgetAlert, error) {
	var budgets []models.Budget
	if err := h.db.Where("user_id = ? AND month = ? AND active = ?", userID, month, true).
		Order("category ASC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}

	start, end, err := stats.MonthWindow(month)
	if err != nil {
		return nil, err
	}

	alerts := make([]BudgetAlert, 0)
	for _, b := range budgets {
		spent, err := h.engine.Total(userID, start, end, b.Category)
		if err != nil {
			return nil, err
		}
		status := b.AlertStatus(spent)
		if status == models.AlertStatusNormal {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID:           b.ID,
			Category:           b.Category,
			Month:              b.Month,
			Amount:             b.Amount,
			Spent:              spent,
			SpendingPercentage: b.SpendingPercentage(spent),
			AlertStatus:        status,
			Message:            b.AlertMessage(spent),
		})
	}
	return alerts, nil
}
