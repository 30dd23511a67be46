package main

import (
	"os"
	"time"

	"github.com/tavan-shop/storefront/internal/authz"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 内置角色与超级管理员
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}
	if err := models.InitDefaultAdmin(os.Getenv("TV_DEFAULT_ADMIN_USERNAME"), os.Getenv("TV_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Printf("Failed to create default admin: %v", err)
	}

	// 商品
	products := []models.Product{
		{
			Name:        "Cashmere scarf",
			Description: "100% Mongolian cashmere, 180x30 cm",
			Price:       models.NewMoneyFromInt(89000),
			Images:      models.StringArray{"https://cdn.tavan.mn/products/scarf.jpg"},
			Colors:      models.StringArray{"beige", "grey", "navy"},
			Stock:       40,
			IsActive:    true,
			SortOrder:   30,
		},
		{
			Name:        "Felt slippers",
			Description: "Hand-made wool felt slippers",
			Price:       models.NewMoneyFromInt(45000),
			Images:      models.StringArray{"https://cdn.tavan.mn/products/slippers.jpg"},
			Sizes:       models.StringArray{"36", "37", "38", "39", "40", "41", "42"},
			Stock:       60,
			IsActive:    true,
			SortOrder:   20,
		},
		{
			Name:        "Yak wool beanie",
			Description: "Warm knitted beanie",
			Price:       models.NewMoneyFromInt(38000),
			Images:      models.StringArray{"https://cdn.tavan.mn/products/beanie.jpg"},
			Stock:       -1,
			IsActive:    true,
			SortOrder:   10,
		},
		{
			Name:       "Gift tote bag",
			Price:      models.NewMoneyFromInt(0),
			Images:     models.StringArray{"https://cdn.tavan.mn/products/tote.jpg"},
			Stock:      -1,
			IsGiftOnly: true,
			IsActive:   true,
		},
	}
	var giftProductID uint
	for i := range products {
		product := products[i]
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Name)
			if existing.IsGiftOnly {
				giftProductID = existing.ID
			}
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			continue
		}
		if product.IsGiftOnly {
			giftProductID = product.ID
		}
		stdLog.Printf("Created product: %s", product.Name)
	}

	// 满赠活动
	if giftProductID != 0 {
		var count int64
		models.DB.Model(&models.GiftSetting{}).Count(&count)
		if count == 0 {
			setting := models.GiftSetting{
				ThresholdType:  constants.GiftThresholdAmount,
				ThresholdValue: models.NewMoneyFromInt(150000),
				GiftProductID:  giftProductID,
				IsActive:       true,
			}
			if err := models.DB.Create(&setting).Error; err != nil {
				stdLog.Printf("Failed to create gift setting: %v", err)
			}
		}
	}

	// 收款账户
	accounts := []models.BankAccount{
		{BankName: "Khan Bank", AccountNumber: "5000123456", HolderName: "Tavan Shop LLC", ColorScheme: "green", SortOrder: 20, IsActive: true},
		{BankName: "Golomt Bank", AccountNumber: "1105123456", HolderName: "Tavan Shop LLC", ColorScheme: "blue", SortOrder: 10, IsActive: true},
	}
	for _, account := range accounts {
		var existing models.BankAccount
		if err := models.DB.Where("account_number = ?", account.AccountNumber).First(&existing).Error; err == nil {
			continue
		}
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create bank account %s: %v", account.BankName, err)
		}
	}

	// Banner 与合作伙伴
	var bannerCount int64
	models.DB.Model(&models.Banner{}).Count(&bannerCount)
	if bannerCount == 0 {
		banner := models.Banner{
			Title:     "Winter collection",
			Image:     "https://cdn.tavan.mn/banners/winter.jpg",
			Link:      "/products",
			IsActive:  true,
			SortOrder: 10,
		}
		if err := models.DB.Create(&banner).Error; err != nil {
			stdLog.Printf("Failed to create banner: %v", err)
		}
	}
	var partnerCount int64
	models.DB.Model(&models.Partner{}).Count(&partnerCount)
	if partnerCount == 0 {
		partner := models.Partner{Name: "QPay", Logo: "https://cdn.tavan.mn/partners/qpay.png", Link: "https://qpay.mn", IsActive: true}
		if err := models.DB.Create(&partner).Error; err != nil {
			stdLog.Printf("Failed to create partner: %v", err)
		}
	}

	// 演示优惠码
	var coupon models.Coupon
	if err := models.DB.Where("code = ?", "WINTER").First(&coupon).Error; err != nil {
		expires := time.Now().AddDate(0, 3, 0)
		coupon = models.Coupon{Code: "WINTER", DiscountPercentage: 10, ExpiresAt: &expires, IsActive: true, Description: "seed"}
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("Failed to create coupon: %v", err)
		}
	}

	stdLog.Printf("Seed data created successfully!")
}
