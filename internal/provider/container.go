package provider

import (
	"time"

	"github.com/tavan-shop/storefront/internal/authz"
	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/payment/qpay"
	"github.com/tavan-shop/storefront/internal/queue"
	"github.com/tavan-shop/storefront/internal/repository"
	"github.com/tavan-shop/storefront/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     service.PaymentGateway

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	CartRepo        repository.CartRepository
	AddressRepo     repository.AddressRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	BannerRepo      repository.BannerRepository
	PartnerRepo     repository.PartnerRepository
	BankAccountRepo repository.BankAccountRepository
	GiftSettingRepo repository.GiftSettingRepository
	PaymentRepo     repository.PaymentRepository
	OrderRepo       repository.OrderRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	ProductService     *service.ProductService
	BannerService      *service.BannerService
	PartnerService     *service.PartnerService
	BankAccountService *service.BankAccountService
	GiftSettingService *service.GiftSettingService
	CartService        *service.CartService
	AddressService     *service.AddressService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	OrderService       *service.OrderService
	OrderFinalizer     *service.OrderFinalizer
	PaymentWatcher     *service.PaymentWatcher
	CheckoutService    *service.CheckoutService
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
		Gateway:     newGateway(cfg.QPay),
	}

	c.initRepositories(models.DB)
	c.initServices(models.DB)
	return c
}

// newGateway QPay 未配置时返回 nil，结账仅提供银行转账
func newGateway(cfg config.QPayConfig) service.PaymentGateway {
	client, err := qpay.NewClient(qpay.Config{
		BaseURL:     cfg.BaseURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		InvoiceCode: cfg.InvoiceCode,
		CallbackURL: cfg.CallbackURL,
		QRRenderURL: cfg.QRRenderURL,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil)
	if err != nil {
		logger.Warnw("provider_qpay_disabled", "error", err)
		return nil
	}
	return client
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.BannerRepo = repository.NewBannerRepository(db)
	c.PartnerRepo = repository.NewPartnerRepository(db)
	c.BankAccountRepo = repository.NewBankAccountRepository(db)
	c.GiftSettingRepo = repository.NewGiftSettingRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
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
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.BannerService = service.NewBannerService(c.BannerRepo)
	c.PartnerService = service.NewPartnerService(c.PartnerRepo)
	c.BankAccountService = service.NewBankAccountService(c.BankAccountRepo)
	c.GiftSettingService = service.NewGiftSettingService(c.GiftSettingRepo, c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CouponUsageRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo)

	c.OrderFinalizer = service.NewOrderFinalizer(db, c.PaymentRepo, c.OrderRepo, c.CartRepo, c.CouponUsageRepo, c.ProductRepo)
	c.PaymentWatcher = service.NewPaymentWatcher(c.Config.Checkout, c.Gateway, c.PaymentRepo, c.OrderFinalizer)

	var tasks service.TaskScheduler
	if c.QueueClient != nil {
		tasks = c.QueueClient
	}
	c.CheckoutService = service.NewCheckoutService(service.CheckoutDeps{
		Config:      c.Config.Checkout,
		QPay:        c.Config.QPay,
		Cart:        c.CartService,
		Coupons:     c.CouponService,
		Gifts:       c.GiftSettingService,
		AddressRepo: c.AddressRepo,
		ProductRepo: c.ProductRepo,
		PaymentRepo: c.PaymentRepo,
		Gateway:     c.Gateway,
		Finalizer:   c.OrderFinalizer,
		Watcher:     c.PaymentWatcher,
		Tasks:       tasks,
	})
}

// Close 释放后台资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.PaymentWatcher != nil {
		c.PaymentWatcher.Shutdown()
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
