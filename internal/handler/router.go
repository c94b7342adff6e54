package handler

import (
	"pointsgame/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 认证相关
		auth := api.Group("/auth")
		{
			auth.POST("/telegram", h.TelegramAuth)
		}

		// 用户相关
		user := api.Group("/user")
		{
			user.GET("/balance", h.GetBalance)
			user.GET("/stats", h.GetStats)
			user.GET("/transactions", h.GetTransactions)
		}

		// 游戏相关
		game := api.Group("/game")
		{
			game.POST("/play", h.Play)
			game.GET("/history", h.GameHistory)
			game.GET("/status", h.GameStatus)
		}

		// 充值相关
		deposit := api.Group("/deposit")
		{
			deposit.POST("/request", h.RequestDeposit)
			deposit.GET("/history", h.DepositHistory)
		}

		// 提现相关
		withdrawal := api.Group("/withdrawal")
		{
			withdrawal.POST("/request", h.RequestWithdrawal)
			withdrawal.GET("/history", h.WithdrawalHistory)
		}

		// 管理相关（每次调用都重新校验管理员身份）
		admin := api.Group("/admin")
		{
			admin.GET("/users", h.AdminListUsers)
			admin.POST("/points/add", h.AdminAddPoints)
			admin.POST("/user/ban", h.AdminBanUser)
			admin.GET("/deposits", h.AdminListDeposits)
			admin.POST("/deposit/approve", h.AdminApproveDeposit)
			admin.POST("/deposit/reject", h.AdminRejectDeposit)
			admin.GET("/withdrawals", h.AdminListWithdrawals)
			admin.POST("/withdrawal/process", h.AdminProcessWithdrawal)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
