package router

import (
	"fmt"
	"strings"

	"github.com/coinvo/funnel-api/internal/cache"
	"github.com/coinvo/funnel-api/internal/config"
	adminhandlers "github.com/coinvo/funnel-api/internal/http/handlers/admin"
	publichandlers "github.com/coinvo/funnel-api/internal/http/handlers/public"
	"github.com/coinvo/funnel-api/internal/logger"
	"github.com/coinvo/funnel-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cv"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	redirectRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redirect", redisPrefix),
		WindowSeconds: cfg.Security.RedirectRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedirectRateLimit.MaxRequests,
		Message:       "too many requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的图片）- 必须放在最前面
	r.Static("/uploads", "./uploads")

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 当前账号
				authorized.GET("/profile", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 漏斗看板
				authorized.GET("/dashboard", adminHandler.GetDashboardStats)

				// 漏斗管理
				authorized.GET("/funnels", adminHandler.GetFunnels)
				authorized.GET("/funnels/:id", adminHandler.GetFunnel)
				authorized.POST("/funnels", adminHandler.CreateFunnel)
				authorized.PUT("/funnels/:id", adminHandler.UpdateFunnel)
				authorized.DELETE("/funnels/:id", adminHandler.DeleteFunnel)

				// 追踪链接管理
				authorized.GET("/tracking-links", adminHandler.GetTrackingLinks)
				authorized.GET("/tracking-links/:id", adminHandler.GetTrackingLink)
				authorized.GET("/tracking-links/:id/analytics", adminHandler.GetTrackingLinkAnalytics)
				authorized.POST("/tracking-links", adminHandler.CreateTrackingLink)
				authorized.PATCH("/tracking-links/:id/toggle", adminHandler.ToggleTrackingLink)
				authorized.DELETE("/tracking-links/bulk", adminHandler.BulkDeleteTrackingLinks)
				authorized.PUT("/tracking-links/:id", adminHandler.UpdateTrackingLink)
				authorized.DELETE("/tracking-links/:id", adminHandler.DeleteTrackingLink)

				// 推广用户
				authorized.GET("/affiliates", adminHandler.GetAffiliates)
				authorized.GET("/users", adminHandler.GetAffiliateUsers)

				// 系统用户管理（仅 superuser）
				authorized.GET("/system-users", adminHandler.GetSystemUsers)
				authorized.POST("/system-users", adminHandler.CreateSystemUser)
				authorized.PUT("/system-users/:id", adminHandler.UpdateSystemUser)
				authorized.DELETE("/system-users/:id", adminHandler.DeleteSystemUser)
				authorized.PATCH("/system-users/:id/toggle-status", adminHandler.ToggleSystemUserStatus)

				// 角色与策略管理（仅 superuser）
				authorized.GET("/system-roles", adminHandler.GetSystemRoles)
				authorized.POST("/system-roles/:role/policies", adminHandler.CreateSystemRolePolicy)
				authorized.DELETE("/system-roles/:role/policies", adminHandler.DeleteSystemRolePolicy)
				authorized.DELETE("/system-roles/:role", adminHandler.DeleteSystemRole)
			}
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 公开跳转路由（最后注册，避免遮蔽静态与接口路径）
	redirectLimiter := RateLimitMiddleware(redisClient, redirectRule, KeyByIP)
	r.GET("/l/:shortCode", redirectLimiter, publicHandler.RedirectShortCode)
	r.GET("/:funnelSlug", redirectLimiter, publicHandler.RedirectSlug)
	r.GET("/:funnelSlug/:slug", redirectLimiter, publicHandler.RedirectFunnelSlug)

	return r
}
