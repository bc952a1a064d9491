package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"fintrack/reportstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReportStore(t *testing.T) *reportstore.Store {
	store, err := reportstore.Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReportHandler_Generate(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	store := setupReportStore(t)

	// month total
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(230.0))
	// category breakdown feeding the top category
	mock.ExpectQuery("SELECT category, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count"}).
			AddRow("Food", 150.0, 2).
			AddRow("Travel", 80.0, 1))
	// budgets of the month
	mock.ExpectQuery("SELECT \\* FROM `budgets`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category", "amount", "month", "alert_threshold", "active"}).
			AddRow(1, 1, "Food", 120.0, "2024-01", 80.0, true))
	// spend against the Food budget
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(150.0))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/reports/generate", NewReportHandler(db, store).Generate)

	body := `{"month":"2024-01"}`
	req := httptest.NewRequest("POST", "/reports/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data reportstore.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01", resp.Data.Month)
	assert.Equal(t, 230.0, resp.Data.TotalSpent)
	require.NotNil(t, resp.Data.TopCategory)
	assert.Equal(t, "Food", *resp.Data.TopCategory)
	require.Len(t, resp.Data.OverBudgetEntries, 1)
	assert.Equal(t, 30.0, resp.Data.OverBudgetEntries[0].Overage)
	require.NoError(t, mock.ExpectationsWereMet())

	// the snapshot is now readable through the store
	saved, err := store.Get(1, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, 230.0, saved.TotalSpent)
}

func TestReportHandler_Generate_InvalidMonth(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()
	store := setupReportStore(t)

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/reports/generate", NewReportHandler(db, store).Generate)

	body := `{"month":"2024-1"}`
	req := httptest.NewRequest("POST", "/reports/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestReportHandler_Get_NotFound(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()
	store := setupReportStore(t)

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/:month", NewReportHandler(db, store).Get)

	req := httptest.NewRequest("GET", "/reports/2024-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestReportHandler_Get_InvalidMonth(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()
	store := setupReportStore(t)

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/:month", NewReportHandler(db, store).Get)

	req := httptest.NewRequest("GET", "/reports/january", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestReportHandler_GetAndList(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()
	store := setupReportStore(t)

	top := "Food"
	require.NoError(t, store.Save(reportstore.Snapshot{
		UserID: 1, Month: "2024-01", TotalSpent: 230.0,
		TopCategory: &top, TopCategoryAmount: 150.0,
		OverBudgetEntries: []reportstore.OverBudgetCategory{},
	}))
	require.NoError(t, store.Save(reportstore.Snapshot{
		UserID: 1, Month: "2024-02", TotalSpent: 90.0,
		OverBudgetEntries: []reportstore.OverBudgetCategory{},
	}))

	h := NewReportHandler(db, store)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/:month", h.Get)
	router.GET("/reports", h.List)

	req := httptest.NewRequest("GET", "/reports/2024-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
	var one struct {
		Data reportstore.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, 230.0, one.Data.TotalSpent)

	req = httptest.NewRequest("GET", "/reports", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
	var list struct {
		Data []reportstore.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	// newest month first
	assert.Equal(t, "2024-02", list.Data[0].Month)
}
