package router

import (
	"fmt"
	"strings"

	"github.com/benefit-ledger/internal/cache"
	"github.com/benefit-ledger/internal/config"
	adminhandlers "github.com/benefit-ledger/internal/http/handlers/admin"
	publichandlers "github.com/benefit-ledger/internal/http/handlers/public"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按结算侧/管理侧分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bl"
	}
	redisClient := cache.Client()
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxRequests,
		Message:       "webhook rate limit exceeded, retry in %d seconds",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 只读公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/gift-cards/balance", publicHandler.GetGiftCardBalance)
			public.GET("/promotions", publicHandler.ListActivePromotions)
		}

		// 结算流程接口
		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/promotions/apply", publicHandler.ApplyPromotion)
			checkout.POST("/promotions/usages", publicHandler.RecordPromotionUsage)
			checkout.POST("/gift-cards/redeem", publicHandler.RedeemGiftCard)
			checkout.POST("/gift-cards/refund", publicHandler.RefundGiftCard)
			checkout.POST("/loyalty/accrue", publicHandler.AccrueLoyalty)
			checkout.POST("/loyalty/redeem", publicHandler.RedeemLoyalty)
			checkout.GET("/loyalty/account", publicHandler.GetLoyaltyAccount)
			checkout.POST("/payment-intents", publicHandler.CreatePaymentIntent)
			checkout.GET("/payment-intents", publicHandler.GetPaymentIntent)
			checkout.GET("/payment-intents/:intent_no", publicHandler.GetPaymentIntent)
			checkout.POST("/payment-intents/:intent_no/cancel", publicHandler.CancelPaymentIntent)
		}

		// 渠道回调接口（按渠道 + IP 限流）
		apiV1.POST("/webhooks/:provider",
			RateLimitMiddleware(redisClient, webhookRule, KeyByIPAndPathParam("provider")),
			publicHandler.IngestWebhook,
		)

		// 管理员接口（服务令牌鉴权）
		admin := apiV1.Group("/admin")
		admin.Use(ServiceTokenMiddleware(cfg.JWT.SecretKey))
		{
			// 礼品卡管理
			admin.POST("/gift-cards", adminHandler.IssueGiftCard)
			admin.POST("/gift-cards/batch", adminHandler.BatchIssueGiftCards)
			admin.GET("/gift-cards", adminHandler.ListGiftCards)
			admin.GET("/gift-cards/:id", adminHandler.GetGiftCard)
			admin.POST("/gift-cards/:id/cancel", adminHandler.CancelGiftCard)
			admin.POST("/gift-cards/export", adminHandler.ExportGiftCards)

			// 促销规则管理
			admin.POST("/promotions", adminHandler.CreatePromotion)
			admin.GET("/promotions", adminHandler.ListPromotions)
			admin.GET("/promotions/:id", adminHandler.GetPromotion)
			admin.PUT("/promotions/:id", adminHandler.UpdatePromotion)
			admin.DELETE("/promotions/:id", adminHandler.DeletePromotion)

			// 积分账户
			admin.GET("/loyalty/account", adminHandler.GetLoyaltyAccount)

			// 支付意向
			admin.GET("/payment-intents", adminHandler.ListPaymentIntents)
			admin.GET("/payment-intents/:intent_no", adminHandler.GetPaymentIntent)

			// 回调事件
			admin.GET("/webhook-events", adminHandler.ListWebhookEvents)
			admin.GET("/webhook-events/unprocessed", adminHandler.ListUnprocessedWebhookEvents)

			// 对账
			admin.POST("/reconcile/run", adminHandler.RunReconcile)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
