// Package router assembles the gin engine: middleware, public routes,
// authenticated ledger routes and operator routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"fintrack/internal/config"
	_ "fintrack/internal/docs" // swagger spec
	"fintrack/internal/events"
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/services"
)

// Services bundles every service the routes depend on.
type Services struct {
	Users        services.UserServicer
	Categories   services.CategoryServicer
	Accounts     services.AccountServicer
	Budgets      services.BudgetServicer
	Goals        services.GoalServicer
	Transactions services.TransactionServicer
	Reconcile    services.ReconcileServicer
	Dashboard    services.DashboardServicer
}

// NewServices wires the service graph on db. A nil publisher drops events.
func NewServices(db *gorm.DB, cfg *config.Config, publisher events.Publisher) *Services {
	if publisher == nil {
		publisher = events.Nop{}
	}
	accounts := services.NewAccountService(db)
	budgets := services.NewBudgetService(db)
	return &Services{
		Users:        services.NewUserService(db, nil),
		Categories:   services.NewCategoryService(db, cfg.CategoryCacheTTL),
		Accounts:     accounts,
		Budgets:      budgets,
		Goals:        services.NewGoalService(db, publisher),
		Transactions: services.NewTransactionService(db, accounts, budgets, publisher),
		Reconcile:    services.NewReconcileService(db),
		Dashboard:    services.NewDashboardService(db),
	}
}

// New builds the HTTP engine.
func New(cfg *config.Config, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	accountHandler := handlers.NewAccountHandler(svc.Accounts)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets)
	goalHandler := handlers.NewGoalHandler(svc.Goals)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	ledgerHandler := handlers.NewLedgerHandler(svc.Reconcile)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(cfg.AuthRatePerMinute))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Operator routes
	internal := v1.Group("/internal")
	internal.Use(middleware.InternalAPIKey(cfg.InternalAPIKey))
	internal.POST("/reconcile", ledgerHandler.ReconcileAll)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/dashboard", dashboardHandler.GetSummary)
	protected.POST("/ledger/reconcile", ledgerHandler.Reconcile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.POST("/:id/primary", accountHandler.SetPrimary)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudgetProgress)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.ListGoals)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contribute", goalHandler.Contribute)
	goals.POST("/:id/status", goalHandler.SetStatus)
	goals.POST("/:id/complete", goalHandler.MarkComplete)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
