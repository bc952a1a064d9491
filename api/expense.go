package api

import (
	"strconv"
	"strings"
	"time"

	"fintrack/middleware"
	"fintrack/models"
	"fintrack/stats"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExpenseHandler serves expense CRUD and range statistics.
type ExpenseHandler struct {
	db     *gorm.DB
	engine *stats.Engine
}

// NewExpenseHandler creates the expense handler.
func NewExpenseHandler(db *gorm.DB) *ExpenseHandler {
	return &ExpenseHandler{db: db, engine: stats.NewEngine(db)}
}

// CreateExpenseRequest is the create payload.
type CreateExpenseRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0" example:"99.99"`
	Category      string  `json:"category" binding:"required" example:"Food"`
	Date          string  `json:"date" binding:"required" example:"2024-01-15"`
	PaymentMethod string  `json:"payment_method" binding:"required" example:"UPI"`
	Notes         string  `json:"notes" binding:"max=500" example:"lunch"`
	Recurrence    string  `json:"recurrence" example:"none"`
}

// UpdateExpenseRequest is the update payload; zero values leave the field
// untouched.
type UpdateExpenseRequest struct {
	Amount        float64 `json:"amount" binding:"omitempty,gt=0" example:"99.99"`
	Category      string  `json:"category" example:"Food"`
	Date          string  `json:"date" example:"2024-01-15"`
	PaymentMethod string  `json:"payment_method" example:"UPI"`
	Notes         *string `json:"notes" binding:"omitempty,max=500" example:"lunch"`
	Recurrence    string  `json:"recurrence" example:"none"`
}

// ExpenseListRequest is the list query.
type ExpenseListRequest struct {
	Page          int    `form:"page" example:"1"`
	PageSize      int    `form:"page_size" example:"10"`
	Category      string `form:"category" example:"Food"`
	PaymentMethod string `form:"payment_method" example:"UPI"`
	StartDate     string `form:"start_date" example:"2024-01-01"`
	EndDate       string `form:"end_date" example:"2024-12-31"`
}

// validateEnums checks category / payment method / recurrence against the
// fixed sets. Returns a field-level message, "" when everything is valid.
func validateEnums(category, paymentMethod, recurrence string) string {
	if category != "" && !models.ValidCategory(category) {
		return "unknown category: " + category
	}
	if paymentMethod != "" && !models.ValidPaymentMethod(paymentMethod) {
		return "unknown payment method: " + paymentMethod
	}
	if recurrence != "" && !models.ValidRecurrence(recurrence) {
		return "unknown recurrence: " + recurrence
	}
	return ""
}

// Create logs a new expense
// @Summary Create expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "expense payload"
// @Success 200 {object} Response{data=models.Expense} "created"
// @Failure 400 {object} Response "invalid payload"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid payload"))
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.Recurrence == "" {
		req.Recurrence = models.RecurrenceNone
	}
	if msg := validateEnums(req.Category, req.PaymentMethod, req.Recurrence); msg != "" {
		BadRequest(c, msg)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "invalid date, want format: 2006-01-02")
		return
	}

	expense := models.Expense{
		UserID:        userID,
		Amount:        req.Amount,
		Category:      req.Category,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Recurrence:    req.Recurrence,
	}

	if err := h.db.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "create expense failed"))
		return
	}

	SuccessWithMessage(c, "created", expense)
}

// List returns the caller's expenses
// @Summary List expenses
// @Description List the caller's expenses with paging and filters
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(10)
// @Param category query string false "category filter"
// @Param payment_method query string false "payment method filter"
// @Param start_date query string false "start date (2024-01-01)"
// @Param end_date query string false "end date (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid query"))
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := h.db.Model(&models.Expense{}).Where("user_id = ?", userID)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.PaymentMethod != "" {
		query = query.Where("payment_method = ?", req.PaymentMethod)
	}
	if req.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			BadRequest(c, "invalid start_date, want format: 2006-01-02")
			return
		}
		query = query.Where("date >= ?", start)
	}
	if req.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local)
		if err != nil {
			BadRequest(c, "invalid end_date, want format: 2006-01-02")
			return
		}
		// include the whole end day
		end = end.Add(24*time.Hour - time.Second)
		query = query.Where("date <= ?", end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	var expenses []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("date DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get returns one expense
// @Summary Get expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Success 200 {object} Response{data=models.Expense} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "expense not found")
		return
	}

	Success(c, expense)
}

// Update edits one expense
// @Summary Update expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Param request body UpdateExpenseRequest true "expense payload"
// @Success 200 {object} Response{data=models.Expense} "updated"
// @Failure 400 {object} Response "invalid payload"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "expense not found")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid payload"))
		return
	}

	if msg := validateEnums(strings.TrimSpace(req.Category), strings.TrimSpace(req.PaymentMethod), req.Recurrence); msg != "" {
		BadRequest(c, msg)
		return
	}

	updates := make(map[string]interface{})
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.Category != "" {
		updates["category"] = strings.TrimSpace(req.Category)
	}
	if req.PaymentMethod != "" {
		updates["payment_method"] = strings.TrimSpace(req.PaymentMethod)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Recurrence != "" {
		updates["recurrence"] = req.Recurrence
	}
	if req.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			BadRequest(c, "invalid date, want format: 2006-01-02")
			return
		}
		updates["date"] = date
	}

	if err := h.db.Model(&expense).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "update failed"))
		return
	}

	h.db.First(&expense, expense.ID)
	SuccessWithMessage(c, "updated", expense)
}

// Delete removes one expense
// @Summary Delete expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Success 200 {object} Response "deleted"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "expense not found")
		return
	}

	if err := h.db.Delete(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "delete failed"))
		return
	}

	SuccessWithMessage(c, "deleted", nil)
}

// GetStatistics returns range totals and breakdowns
// @Summary Expense statistics
// @Description Total spend plus per-category and per-payment-method breakdowns over a date range
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "start date (2024-01-01)"
// @Param end_date query string true "end date (2024-12-31)"
// @Param category query string false "narrow to one category"
// @Success 200 {object} Response "ok"
// @Failure 400 {object} Response "invalid range"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/expenses/statistics [get]
func (h *ExpenseHandler) GetStatistics(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		BadRequest(c, "start_date and end_date are required")
		return
	}

	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		BadRequest(c, "invalid start_date, want format: 2006-01-02")
		return
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		BadRequest(c, "invalid end_date, want format: 2006-01-02")
		return
	}
	end = end.Add(24*time.Hour - time.Second)

	category := strings.TrimSpace(c.Query("category"))
	if category != "" && !models.ValidCategory(category) {
		BadRequest(c, "unknown category: "+category)
		return
	}

	total, err := h.engine.Total(userID, start, end, category)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}
	categoryStats, err := h.engine.CategoryBreakdown(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}
	paymentStats, err := h.engine.PaymentMethodBreakdown(userID, start, end, 0)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	Success(c, gin.H{
		"total_amount":         total,
		"category_stats":       categoryStats,
		"payment_method_stats": paymentStats,
	})
}

// GetCategories lists the fixed expense categories
// @Summary List categories
// @Tags meta
// @Produce json
// @Success 200 {object} Response{data=[]string} "ok"
// @Router /api/v1/meta/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	Success(c, models.GetCategories())
}

// GetPaymentMethods lists the fixed payment methods
// @Summary List payment methods
// @Tags meta
// @Produce json
// @Success 200 {object} Response{data=[]string} "ok"
// @Router /api/v1/meta/payment-methods [get]
func (h *ExpenseHandler) GetPaymentMethods(c *gin.Context) {
	Success(c, models.GetPaymentMethods())
}
