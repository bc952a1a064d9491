package api

import (
	"errors"

	"fintrack/middleware"
	"fintrack/reportstore"
	"fintrack/stats"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportHandler serves monthly report snapshots. Generation recomputes the
// snapshot from live expense and budget data and overwrites any prior run
// for the same month; reads only ever see stored snapshots.
type ReportHandler struct {
	generator *stats.ReportGenerator
	store     *reportstore.Store
}

// NewReportHandler creates the report handler.
func NewReportHandler(db *gorm.DB, store *reportstore.Store) *ReportHandler {
	return &ReportHandler{
		generator: stats.NewReportGenerator(db, store),
		store:     store,
	}
}

// GenerateReportRequest is the generate payload.
type GenerateReportRequest struct {
	Month string `json:"month" binding:"required" example:"2024-01"`
}

// Generate builds and stores the snapshot for one month
// @Summary Generate monthly report
// @Description Compute the spending snapshot for a month and store it, replacing any previous snapshot for that month
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateReportRequest true "target month"
// @Success 200 {object} Response{data=reportstore.Snapshot} "generated"
// @Failure 400 {object} Response "invalid month"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/reports/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid payload"))
		return
	}
	if _, _, err := stats.MonthWindow(req.Month); err != nil {
		BadRequest(c, "invalid month, want format: YYYY-MM")
		return
	}

	snap, err := h.generator.Generate(userID, req.Month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "generate report failed"))
		return
	}

	SuccessWithMessage(c, "generated", snap)
}

// Get returns the stored snapshot for one month
// @Summary Get monthly report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param month path string true "month (2024-01)"
// @Success 200 {object} Response{data=reportstore.Snapshot} "ok"
// @Failure 400 {object} Response "invalid month"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "no report for this month"
// @Router /api/v1/reports/{month} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	month := c.Param("month")

	if _, _, err := stats.MonthWindow(month); err != nil {
		BadRequest(c, "invalid month, want format: YYYY-MM")
		return
	}

	snap, err := h.store.Get(userID, month)
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			NotFound(c, "no report for this month")
			return
		}
		InternalError(c, SafeErrorMessage(err, "load report failed"))
		return
	}

	Success(c, snap)
}

// List returns every stored snapshot of the caller
// @Summary List monthly reports
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]reportstore.Snapshot} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/v1/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	snaps, err := h.store.List(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "load reports failed"))
		return
	}

	Success(c, snaps)
}
