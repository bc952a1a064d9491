package router

import (
	"time"

	"fintrack/api"
	"fintrack/config"
	_ "fintrack/docs"
	"fintrack/middleware"
	"fintrack/reportstore"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter builds the gin engine with every route group wired onto the
// injected store handles.
func SetupRouter(cfg *config.Config, db *gorm.DB, reports *reportstore.Store) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	r.Use(CORSMiddleware())

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	analyzer := service.NewAnalyzerService(&cfg.Analyzer)

	authHandler := api.NewAuthHandler(db, cfg)
	expenseHandler := api.NewExpenseHandler(db)
	budgetHandler := api.NewBudgetHandler(db)
	reportHandler := api.NewReportHandler(db, reports)
	dashboardHandler := api.NewDashboardHandler(db)
	suggestionHandler := api.NewSuggestionHandler(db, analyzer)
	exportHandler := api.NewExportHandler(db)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login",
				middleware.LoginRateLimit(
					cfg.RateLimit.LoginMaxAttempts,
					time.Duration(cfg.RateLimit.LoginWindowSeconds)*time.Second,
				),
				authHandler.Login)
		}

		// fixed enums, no login required
		meta := v1.Group("/meta")
		{
			meta.GET("/categories", expenseHandler.GetCategories)
			meta.GET("/payment-methods", expenseHandler.GetPaymentMethods)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/statistics", expenseHandler.GetStatistics)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.GET("/alerts", budgetHandler.Alerts)
				budgets.GET("/:id", budgetHandler.Get)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
			}

			rep := authorized.Group("/reports")
			{
				rep.POST("/generate", reportHandler.Generate)
				rep.GET("", reportHandler.List)
				rep.GET("/:month", reportHandler.Get)
			}

			authorized.GET("/dashboard", dashboardHandler.Get)
			authorized.GET("/suggestions", suggestionHandler.Get)

			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware allows cross-origin requests from web clients.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
