package provider

import (
	"github.com/benefit-ledger/internal/cache"
	"github.com/benefit-ledger/internal/config"
	"github.com/benefit-ledger/internal/logger"
	"github.com/benefit-ledger/internal/models"
	"github.com/benefit-ledger/internal/queue"
	"github.com/benefit-ledger/internal/repository"
	"github.com/benefit-ledger/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	GiftCardRepo       repository.GiftCardRepository
	PromotionRepo      repository.PromotionRepository
	PromotionUsageRepo repository.PromotionUsageRepository
	LoyaltyRepo        repository.LoyaltyRepository
	PaymentRepo        repository.PaymentRepository
	WebhookEventRepo   repository.WebhookEventRepository

	// Services
	GiftCardService       *service.GiftCardService
	PromotionService      *service.PromotionService
	PromotionAdminService *service.PromotionAdminService
	LoyaltyService        *service.LoyaltyService
	PaymentService        *service.PaymentService
	WebhookService        *service.WebhookService
	ReconcileService      *service.ReconcileService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.GiftCardRepo = repository.NewGiftCardRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.PromotionUsageRepo = repository.NewPromotionUsageRepository(db)
	c.LoyaltyRepo = repository.NewLoyaltyRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.WebhookEventRepo = repository.NewWebhookEventRepository(db)
}

func (c *Container) initServices() {
	c.GiftCardService = service.NewGiftCardService(c.GiftCardRepo)
	c.PromotionService = service.NewPromotionService(c.PromotionRepo, c.PromotionUsageRepo)
	c.PromotionAdminService = service.NewPromotionAdminService(c.PromotionRepo, c.PromotionUsageRepo)
	c.LoyaltyService = service.NewLoyaltyService(c.LoyaltyRepo)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo)
	c.WebhookService = service.NewWebhookService(c.WebhookEventRepo, c.PaymentService)
	c.ReconcileService = service.NewReconcileService(c.GiftCardRepo, c.LoyaltyRepo)
}
