package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tavan-shop/storefront/internal/authz"
	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/config"
	adminhandlers "github.com/tavan-shop/storefront/internal/http/handlers/admin"
	publichandlers "github.com/tavan-shop/storefront/internal/http/handlers/public"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
		redisPrefix = "tv"
	}
	redisClient := cache.Client()
	loginRule := RuleFromConfig(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit)
	adminLoginRule := RuleFromConfig(fmt.Sprintf("%s:rate:admin_login", redisPrefix), cfg.Security.LoginRateLimit)
	couponRule := RuleFromConfig(fmt.Sprintf("%s:rate:coupon", redisPrefix), cfg.Security.CouponRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	userAuth := UserAuthMiddleware(c.UserAuthService)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/banners", publicHandler.GetPublicBanners)
			public.GET("/partners", publicHandler.GetPublicPartners)
			public.GET("/products", publicHandler.GetPublicProducts)
			public.GET("/products/:id", publicHandler.GetPublicProduct)
			public.GET("/bank-accounts/active", publicHandler.GetActiveBankAccounts)
			public.GET("/gift-settings/active", publicHandler.GetActiveGiftSetting)
		}

		// 顾客认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
			auth.POST("/logout", userAuth, publicHandler.UserLogout)
		}

		// QPay 回调，只触发重新查询
		apiV1.GET("/payments/qpay/callback", publicHandler.QPayCallback)
		apiV1.POST("/payments/qpay/callback", publicHandler.QPayCallback)

		// 顾客接口
		user := apiV1.Group("")
		user.Use(userAuth)
		{
			user.GET("/me", publicHandler.GetCurrentUser)

			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)

			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.PUT("/addresses/:id", publicHandler.UpdateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)

			user.POST("/coupons/validate", RateLimitMiddleware(redisClient, couponRule, KeyByIP), publicHandler.ValidateCoupon)

			user.POST("/checkout/quote", publicHandler.QuoteCheckout)
			user.POST("/checkout/payments", publicHandler.CreatePayment)
			user.GET("/checkout/payments/:payment_no", publicHandler.GetPayment)
			user.POST("/checkout/payments/:payment_no/check", publicHandler.CheckPayment)
			user.POST("/checkout/payments/:payment_no/confirm-transfer", publicHandler.ConfirmTransfer)
			user.POST("/checkout/payments/:payment_no/cancel", publicHandler.CancelPayment)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
		}

		// 管理端
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("")
			authorized.Use(AdminAuthMiddleware(c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)
				authorized.PUT("/me/password", adminHandler.ChangePassword)
				authorized.POST("/logout", adminHandler.AdminLogout)

				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetRolePolicies)

				authorized.GET("/banners", adminHandler.GetAdminBanners)
				authorized.POST("/banners", adminHandler.CreateBanner)
				authorized.GET("/banners/:id", adminHandler.GetAdminBanner)
				authorized.PUT("/banners/:id", adminHandler.UpdateBanner)
				authorized.DELETE("/banners/:id", adminHandler.DeleteBanner)

				authorized.GET("/partners", adminHandler.GetAdminPartners)
				authorized.POST("/partners", adminHandler.CreatePartner)
				authorized.GET("/partners/:id", adminHandler.GetAdminPartner)
				authorized.PUT("/partners/:id", adminHandler.UpdatePartner)
				authorized.DELETE("/partners/:id", adminHandler.DeletePartner)

				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				authorized.GET("/bank-accounts", adminHandler.GetAdminBankAccounts)
				authorized.POST("/bank-accounts", adminHandler.CreateBankAccount)
				authorized.GET("/bank-accounts/:id", adminHandler.GetAdminBankAccount)
				authorized.PUT("/bank-accounts/:id", adminHandler.UpdateBankAccount)
				authorized.DELETE("/bank-accounts/:id", adminHandler.DeleteBankAccount)

				authorized.GET("/gift-settings", adminHandler.GetAdminGiftSettings)
				authorized.POST("/gift-settings", adminHandler.CreateGiftSetting)
				authorized.GET("/gift-settings/:id", adminHandler.GetAdminGiftSetting)
				authorized.PUT("/gift-settings/:id", adminHandler.UpdateGiftSetting)
				authorized.DELETE("/gift-settings/:id", adminHandler.DeleteGiftSetting)

				// 优惠码不提供删除
				authorized.GET("/coupons", adminHandler.GetAdminCoupons)
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.GET("/coupons/:id", adminHandler.GetAdminCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.POST("/coupons/:id/deactivate", adminHandler.DeactivateCoupon)
				authorized.GET("/coupons/:id/usages", adminHandler.GetCouponUsages)

				authorized.GET("/orders", adminHandler.GetAdminOrders)
				authorized.GET("/orders/:id", adminHandler.GetAdminOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

				authorized.GET("/payments", adminHandler.GetAdminPayments)
				authorized.GET("/payments/:id", adminHandler.GetAdminPayment)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		status := "ok"
		if err := models.Ping(); err != nil {
			logger.Warnw("health_db_ping_failed", "error", err)
			status = "degraded"
		}
		ctx.JSON(200, gin.H{"status": status, "redis": cache.Enabled()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
