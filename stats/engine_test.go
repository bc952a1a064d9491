package stats

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock, func() { sqlDB.Close() }
}

func TestMonthWindow(t *testing.T) {
	// January has 31 days
	start, end, err := MonthWindow("2024-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.Local), end)

	// leap-year February
	start, end, err = MonthWindow("2024-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.Local), end)

	// non-leap February
	_, end, err = MonthWindow("2023-02")
	require.NoError(t, err)
	assert.Equal(t, 28, end.Day())

	// 30-day month
	_, end, err = MonthWindow("2024-04")
	require.NoError(t, err)
	assert.Equal(t, 30, end.Day())
}

func TestMonthWindow_Invalid(t *testing.T) {
	for _, month := range []string{"", "2024", "2024-1", "2024/01", "202401", "2024-13", "2024-00", "jan-2024"} {
		_, _, err := MonthWindow(month)
		assert.Error(t, err, "month %q should be rejected", month)
	}
}

func TestCurrentMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)
	assert.Equal(t, "2024-03", CurrentMonth(now))
}

func TestEngine_Total(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(150.0))

	total, err := NewEngine(db).Total(1, start, end, "")
	require.NoError(t, err)
	assert.Equal(t, 150.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Total_EmptyRangeIsZero(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-06")

	// COALESCE turns an empty range into 0, never NULL
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(0.0))

	total, err := NewEngine(db).Total(1, start, end, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestEngine_Total_WithCategory(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WithArgs(uint(1), start, end, "Food").
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(150.0))

	total, err := NewEngine(db).Total(1, start, end, "Food")
	require.NoError(t, err)
	assert.Equal(t, 150.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_CategoryBreakdown(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count"}).
			AddRow("Food", 150.0, 2).
			AddRow("Travel", 90.0, 1))

	rows, err := NewEngine(db).CategoryBreakdown(1, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, 150.0, rows[0].Total)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.Equal(t, "Travel", rows[1].Category)
}

func TestEngine_CategoryBreakdown_Empty(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count"}))

	rows, err := NewEngine(db).CategoryBreakdown(1, start, end)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestEngine_TopCategory(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count"}).
			AddRow("Food", 150.0, 2))

	name, amount, ok, err := NewEngine(db).TopCategory(1, start, end)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Food", name)
	assert.Equal(t, 150.0, amount)
}

func TestEngine_TopCategory_NoExpenses(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count"}))

	name, amount, ok, err := NewEngine(db).TopCategory(1, start, end)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", name)
	assert.Equal(t, 0.0, amount)
}

func TestEngine_MonthlyTrend(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(2024, 6, 30, 23, 59, 59, 0, time.Local)

	// expenses only in months 1 and 3 of the window: exactly two entries,
	// ascending, no zero-filling of the empty months
	mock.ExpectQuery("SELECT YEAR\\(date\\) as year, MONTH\\(date\\) as month, SUM\\(amount\\) as total FROM `expenses`").
		WithArgs(uint(1), windowStart, windowEnd).
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "total"}).
			AddRow(2024, 1, 300.0).
			AddRow(2024, 3, 120.0))

	rows, err := NewEngine(db).MonthlyTrend(1, 6, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, MonthTotal{Year: 2024, Month: 1, Total: 300.0}, rows[0])
	assert.Equal(t, MonthTotal{Year: 2024, Month: 3, Total: 120.0}, rows[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_MonthlyTrend_WindowCrossesYear(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local)
	windowStart := time.Date(2023, 9, 1, 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(2024, 2, 29, 23, 59, 59, 0, time.Local)

	mock.ExpectQuery("SELECT YEAR\\(date\\) as year, MONTH\\(date\\) as month, SUM\\(amount\\) as total FROM `expenses`").
		WithArgs(uint(7), windowStart, windowEnd).
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "total"}).
			AddRow(2023, 11, 40.0).
			AddRow(2024, 1, 55.0))

	rows, err := NewEngine(db).MonthlyTrend(7, 6, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2023, rows[0].Year)
	assert.Equal(t, 2024, rows[1].Year)
}

func TestEngine_PaymentMethodBreakdown(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	start, end, _ := MonthWindow("2024-01")

	mock.ExpectQuery("SELECT payment_method, SUM\\(amount\\) as total, COUNT\\(\\*\\) as count FROM `expenses`").
		WithArgs(uint(1), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"payment_method", "total", "count"}).
			AddRow("UPI", 200.0, 3).
			AddRow("Cash", 80.0, 2).
			AddRow("Credit Card", 20.0, 1))

	rows, err := NewEngine(db).PaymentMethodBreakdown(1, start, end, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "UPI", rows[0].PaymentMethod)
	assert.Equal(t, 200.0, rows[0].Total)
}
