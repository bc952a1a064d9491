package api

import (
	"strconv"
	"time"

	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SuggestionHandler asks the analyzer service for spending suggestions over
// the caller's last 30 days. The analyzer is best effort; when it is down,
// slow or answers garbage the handler falls back to locally computed
// suggestions and never surfaces the upstream failure.
type SuggestionHandler struct {
	db       *gorm.DB
	analyzer *service.AnalyzerService
	now      func() time.Time
}

// NewSuggestionHandler creates the suggestion handler.
func NewSuggestionHandler(db *gorm.DB, analyzer *service.AnalyzerService) *SuggestionHandler {
	return &SuggestionHandler{db: db, analyzer: analyzer, now: time.Now}
}

// Get returns spending suggestions for the last 30 days
// @Summary Spending suggestions
// @Description Analyze the caller's last 30 days of expenses and return suggestions; falls back to built-in analysis when the analyzer service is unavailable
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.AnalyzeResult} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/suggestions [get]
func (h *SuggestionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	username := middleware.GetCurrentUsername(c)

	end := h.now()
	start := end.AddDate(0, 0, -30)

	var expenses []models.Expense
	if err := h.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	payload := make([]service.AnalyzeExpense, 0, len(expenses))
	for _, e := range expenses {
		payload = append(payload, service.AnalyzeExpense{
			Amount:        e.Amount,
			Category:      e.Category,
			Date:          e.Date.Format("2006-01-02"),
			PaymentMethod: e.PaymentMethod,
			Notes:         e.Notes,
		})
	}

	result, err := h.analyzer.Analyze(strconv.FormatUint(uint64(userID), 10), username, payload)
	if err != nil {
		result = h.analyzer.LocalFallback(payload)
	}

	Success(c, result)
}
