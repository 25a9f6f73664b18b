package app

import (
	"time"

	"quest_edu_backend/docs"
	"quest_edu_backend/internal/config"
	"quest_edu_backend/internal/middleware"
	"quest_edu_backend/internal/model"
	"quest_edu_backend/pkg/monitoring"
	"quest_edu_backend/pkg/security"
	"quest_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 任务账本：站内实时完成的唯一入口
		authGroup.POST("/quests/complete", c.quest.CompleteQuest)

		// 进度读路径
		authGroup.GET("/progress", c.progress.GetSummary)
		authGroup.GET("/progress/leaderboard", c.progress.GetLeaderboard)
		authGroup.GET("/progress/badges", c.progress.GetBadges)

		// 管理员：手动触发对账
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/reconcile", c.progress.Reconcile)
		}
	}
}
