package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/config"
	"fintrack/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expenseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "amount", "category", "date", "payment_method", "notes"}).
		AddRow(1, 1, 150.0, "Food", time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local), "UPI", "groceries").
		AddRow(2, 1, 90.0, "Travel", time.Date(2024, 1, 12, 0, 0, 0, 0, time.Local), "Card", "")
}

func TestSuggestionHandler_Get(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	analyzer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body["userId"])
		assert.Len(t, body["expenses"], 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"suggestions":[{"type":"category_alert","message":"High Food spending","priority":"high"}],
			"analysis":{"totalSpending":240,"averageDailySpending":8,"topCategory":"Food","topCategoryAmount":150,"message":"ok"}
		}`))
	}))
	defer analyzer.Close()

	mock.ExpectQuery("SELECT \\* FROM `expenses`").
		WillReturnRows(expenseRows())

	svc := service.NewAnalyzerService(&config.AnalyzerConfig{BaseURL: analyzer.URL, TimeoutSeconds: 5})
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/suggestions", NewSuggestionHandler(db, svc).Get)

	req := httptest.NewRequest("GET", "/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data service.AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Suggestions, 1)
	assert.Equal(t, "category_alert", resp.Data.Suggestions[0].Type)
	assert.Equal(t, "Food", resp.Data.Analysis.TopCategory)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionHandler_Get_FallbackWhenAnalyzerDown(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `expenses`").
		WillReturnRows(expenseRows())

	// nothing listens here, the call fails fast
	svc := service.NewAnalyzerService(&config.AnalyzerConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1})
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/suggestions", NewSuggestionHandler(db, svc).Get)

	req := httptest.NewRequest("GET", "/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// the upstream failure never reaches the client
	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data service.AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 240.0, resp.Data.Analysis.TotalSpending)
	assert.Equal(t, 8.0, resp.Data.Analysis.AverageDailySpending)
	assert.Equal(t, "Food", resp.Data.Analysis.TopCategory)
	assert.NotEmpty(t, resp.Data.Suggestions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionHandler_Get_FallbackNoExpenses(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	svc := service.NewAnalyzerService(&config.AnalyzerConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1})
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/suggestions", NewSuggestionHandler(db, svc).Get)

	req := httptest.NewRequest("GET", "/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data service.AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.Data.Analysis.TotalSpending)
	assert.Equal(t, "None", resp.Data.Analysis.TopCategory)
	require.NoError(t, mock.ExpectationsWereMet())
}
