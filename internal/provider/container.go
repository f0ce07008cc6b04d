package provider

import (
	"github.com/coinvo/funnel-api/internal/authz"
	"github.com/coinvo/funnel-api/internal/cache"
	"github.com/coinvo/funnel-api/internal/config"
	"github.com/coinvo/funnel-api/internal/logger"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/queue"
	"github.com/coinvo/funnel-api/internal/repository"
	"github.com/coinvo/funnel-api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	FunnelRepo        repository.FunnelRepository
	TrackingLinkRepo  repository.TrackingLinkRepository
	ClickRepo         repository.ClickRepository
	AffiliateUserRepo repository.AffiliateUserRepository
	DashboardRepo     repository.DashboardRepository

	// Services
	AuthzService         *authz.Service
	AuthService          *service.AuthService
	LinkService          *service.LinkService
	ClickService         *service.ClickService
	FunnelService        *service.FunnelService
	TrackingLinkService  *service.TrackingLinkService
	AffiliateUserService *service.AffiliateUserService
	AdminUserService     *service.AdminUserService
	DashboardService     *service.DashboardService
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
	c.AdminRepo = repository.NewAdminRepository(db)
	c.FunnelRepo = repository.NewFunnelRepository(db)
	c.TrackingLinkRepo = repository.NewTrackingLinkRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
	c.AffiliateUserRepo = repository.NewAffiliateUserRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.LinkService = service.NewLinkService(c.TrackingLinkRepo)
	c.ClickService = service.NewClickService(c.ClickRepo, c.QueueClient)
	c.FunnelService = service.NewFunnelService(c.FunnelRepo)
	c.TrackingLinkService = service.NewTrackingLinkService(c.TrackingLinkRepo, c.FunnelRepo, c.ClickRepo)
	c.AffiliateUserService = service.NewAffiliateUserService(c.Config, c.AffiliateUserRepo)
	c.AdminUserService = service.NewAdminUserService(c.AuthService, c.AdminRepo)
	c.DashboardService = service.NewDashboardService(c.Config, c.DashboardRepo)
}
