package router

import (
	"log/slog"

	"expensetracker/api"
	"expensetracker/config"
	_ "expensetracker/docs"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps 路由依赖的服务
type Deps struct {
	Auth     *service.AuthService
	Expenses *service.ExpenseService
	Budgets  *service.BudgetService
	JWT      *middleware.JWT
	Log      *slog.Logger

	// LoginLimiter 为 nil 时登录不限流，由创建方 Close
	LoginLimiter *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		gin.Recovery(),
		middleware.Metrics(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	// 存活探针
	r.GET("/", api.Root)
	r.GET("/health", api.Health)

	r.GET("/metrics", middleware.MetricsHandler())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authRequired := deps.JWT.Auth(deps.Auth, log)

	authHandler := api.NewAuthHandler(deps.Auth)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", middleware.LoginRateLimit(deps.LoginLimiter), authHandler.Login)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	expenseHandler := api.NewExpenseHandler(deps.Expenses, cfg.Ledger.Currency)
	expenses := r.Group("/expense", authRequired)
	{
		expenses.POST("/", expenseHandler.Create)
		expenses.GET("/", expenseHandler.List)
		expenses.GET("/balance", expenseHandler.Balance)
		expenses.GET("/export", expenseHandler.Export)
		expenses.PATCH("/:id", expenseHandler.Update)
		expenses.DELETE("/:id", expenseHandler.Delete)
	}

	budgetHandler := api.NewBudgetHandler(deps.Budgets)
	budgets := r.Group("/budget", authRequired)
	{
		budgets.POST("/", budgetHandler.Create)
		budgets.GET("/", budgetHandler.List)
	}

	return r
}
