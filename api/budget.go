package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fintrack/middleware"
	"fintrack/models"
	"fintrack/stats"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// BudgetHandler serves budget CRUD and threshold alerts. Every read
// re-derives current spend through the aggregation engine; nothing about
// consumption is ever stored on the budget row itself.
type BudgetHandler struct {
	db     *gorm.DB
	engine *stats.Engine
	now    func() time.Time
}

// NewBudgetHandler creates the budget handler.
func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{db: db, engine: stats.NewEngine(db), now: time.Now}
}

// CreateBudgetRequest is the create payload.
type CreateBudgetRequest struct {
	Category       string   `json:"category" binding:"required" example:"Food"`
	Amount         float64  `json:"amount" binding:"required,gte=0" example:"500"`
	Month          string   `json:"month" binding:"required" example:"2024-01"`
	AlertThreshold *float64 `json:"alert_threshold" binding:"omitempty,gte=0,lte=100" example:"80"`
}

// UpdateBudgetRequest is the update payload; nil fields stay untouched.
type UpdateBudgetRequest struct {
	Amount         *float64 `json:"amount" binding:"omitempty,gte=0" example:"500"`
	AlertThreshold *float64 `json:"alert_threshold" binding:"omitempty,gte=0,lte=100" example:"80"`
	Active         *bool    `json:"active" example:"true"`
}

// BudgetView is a budget with its derived state for the budget's month.
type BudgetView struct {
	models.Budget
	Spent              float64 `json:"spent"`
	SpendingPercentage float64 `json:"spending_percentage"`
	AlertStatus        string  `json:"alert_status"`
}

// BudgetAlert is one entry of the alert listing.
type BudgetAlert struct {
	BudgetID           uint    `json:"budget_id"`
	Category           string  `json:"category"`
	Month              string  `json:"month"`
	Amount             float64 `json:"amount"`
	Spent              float64 `json:"spent"`
	SpendingPercentage float64 `json:"spending_percentage"`
	AlertStatus        string  `json:"alert_status"`
	Message            string  `json:"message"`
}

// isDuplicateKey reports whether err is a MySQL 1062 unique violation.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// evaluate derives the read-time view of one budget.
func (h *BudgetHandler) evaluate(b models.Budget) (BudgetView, error) {
	start, end, err := stats.MonthWindow(b.Month)
	if err != nil {
		return BudgetView{}, err
	}
	spent, err := h.engine.Total(b.UserID, start, end, b.Category)
	if err != nil {
		return BudgetView{}, err
	}
	return BudgetView{
		Budget:             b,
		Spent:              spent,
		SpendingPercentage: b.SpendingPercentage(spent),
		AlertStatus:        b.AlertStatus(spent),
	}, nil
}

// Create sets a monthly spending limit
// @Summary Create budget
// @Description Create a budget for (category, month). At most one budget may exist per category and month.
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBudgetRequest true "budget payload"
// @Success 200 {object} Response{data=BudgetView} "created"
// @Failure 400 {object} Response "invalid payload"
// @Failure 401 {object} Response "unauthorized"
// @Failure 409 {object} Response "budget already exists for this category and month"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid payload"))
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	if !models.ValidCategory(req.Category) {
		BadRequest(c, "unknown category: "+req.Category)
		return
	}
	if _, _, err := stats.MonthWindow(req.Month); err != nil {
		BadRequest(c, "invalid month, want format: YYYY-MM")
		return
	}

	// conflict is reported before the insert is attempted; the composite
	// unique index backstops concurrent creates
	var existing models.Budget
	if err := h.db.Where("user_id = ? AND category = ? AND month = ?", userID, req.Category, req.Month).
		First(&existing).Error; err == nil {
		Conflict(c, "budget already exists for this category and month")
		return
	}

	threshold := 80.0
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}

	budget := models.Budget{
		UserID:         userID,
		Category:       req.Category,
		Amount:         req.Amount,
		Month:          req.Month,
		AlertThreshold: threshold,
		Active:         true,
	}
	if err := h.db.Create(&budget).Error; err != nil {
		// a concurrent create can slip past the pre-insert check and land
		// on the unique index instead
		if isDuplicateKey(err) {
			Conflict(c, "budget already exists for this category and month")
			return
		}
		InternalError(c, SafeErrorMessage(err, "create budget failed"))
		return
	}

	view, err := h.evaluate(budget)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "evaluate budget failed"))
		return
	}
	SuccessWithMessage(c, "created", view)
}

// List returns the caller's budgets with derived spend
// @Summary List budgets
// @Description List budgets, optionally narrowed to one month, each with recomputed spend, percentage and alert status
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param month query string false "month filter (2024-01)"
// @Param active query bool false "only active budgets"
// @Success 200 {object} Response{data=[]BudgetView} "ok"
// @Failure 400 {object} Response "invalid month filter"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := h.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	if month := c.Query("month"); month != "" {
		if _, _, err := stats.MonthWindow(month); err != nil {
			BadRequest(c, "invalid month, want format: YYYY-MM")
			return
		}
		query = query.Where("month = ?", month)
	}
	if active := c.Query("active"); active != "" {
		if v, err := strconv.ParseBool(active); err == nil {
			query = query.Where("active = ?", v)
		}
	}

	var budgets []models.Budget
	if err := query.Order("month DESC, category ASC").Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		view, err := h.evaluate(b)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "evaluate budget failed"))
			return
		}
		views = append(views, view)
	}

	Success(c, views)
}

// Get returns one budget with derived spend
// @Summary Get budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "budget ID"
// @Success 200 {object} Response{data=BudgetView} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var budget models.Budget
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "budget not found")
		return
	}

	view, err := h.evaluate(budget)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "evaluate budget failed"))
		return
	}
	Success(c, view)
}

// Update edits amount, threshold or active flag
// @Summary Update budget
// @Description Update the limit amount, alert threshold or active flag. Category and month are immutable; create a new budget instead.
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "budget ID"
// @Param request body UpdateBudgetRequest true "budget payload"
// @Success 200 {object} Response{data=BudgetView} "updated"
// @Failure 400 {object} Response "invalid payload"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var budget models.Budget
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "budget not found")
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid payload"))
		return
	}

	updates := make(map[string]interface{})
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.AlertThreshold != nil {
		updates["alert_threshold"] = *req.AlertThreshold
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.db.Model(&budget).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "update failed"))
			return
		}
		h.db.First(&budget, budget.ID)
	}

	view, err := h.evaluate(budget)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "evaluate budget failed"))
		return
	}
	SuccessWithMessage(c, "updated", view)
}

// Delete removes one budget
// @Summary Delete budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "budget ID"
// @Success 200 {object} Response "deleted"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var budget models.Budget
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "budget not found")
		return
	}

	// hard delete, the model has no soft-delete column: the row must
	// release the (user, category, month) unique key for recreation
	if err := h.db.Delete(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "delete failed"))
		return
	}

	SuccessWithMessage(c, "deleted", nil)
}

// Alerts returns current-month budgets at warning or exceeded status
// @Summary Budget alerts
// @Description Evaluate every active budget of the current calendar month and return the ones at warning or exceeded status with a readable message
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]BudgetAlert} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/budgets/alerts [get]
func (h *BudgetHandler) Alerts(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	month := stats.CurrentMonth(h.now())

	var budgets []models.Budget
	if err := h.db.Where("user_id = ? AND month = ? AND active = ?", userID, month, true).
		Order("category ASC").
		Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	alerts := make([]BudgetAlert, 0)
	for _, b := range budgets {
		view, err := h.evaluate(b)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "evaluate budget failed"))
			return
		}
		if view.AlertStatus == models.AlertStatusNormal {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID:           b.ID,
			Category:           b.Category,
			Month:              b.Month,
			Amount:             b.Amount,
			Spent:              view.Spent,
			SpendingPercentage: view.SpendingPercentage,
			AlertStatus:        view.AlertStatus,
			Message:            b.AlertMessage(view.Spent),
		})
	}

	Success(c, alerts)
}
