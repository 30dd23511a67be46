package service

import (
	"context"
	"strings"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// GiftSettingService 满赠规则
type GiftSettingService struct {
	repo        repository.GiftSettingRepository
	productRepo repository.ProductRepository
}

// NewGiftSettingService 创建服务
func NewGiftSettingService(repo repository.GiftSettingRepository, productRepo repository.ProductRepository) *GiftSettingService {
	return &GiftSettingService{repo: repo, productRepo: productRepo}
}

// GiftSettingInput 创建/更新输入
type GiftSettingInput struct {
	ThresholdType  string          `json:"threshold_type"`
	ThresholdValue decimal.Decimal `json:"threshold_value"`
	GiftProductID  uint            `json:"gift_product_id"`
	IsActive       *bool           `json:"is_active"`
}

// List 全部规则
func (s *GiftSettingService) List() ([]models.GiftSetting, error) {
	return s.repo.List()
}

// Active 当前生效规则，没有时返回 nil
func (s *GiftSettingService) Active(ctx context.Context) (*models.GiftSetting, error) {
	setting, err := cache.Remember(ctx, cache.KeyActiveGiftSetting, cache.PublicTTL, func() (*models.GiftSetting, error) {
		return s.repo.GetActive()
	})
	if err != nil {
		return nil, err
	}
	if setting == nil || setting.ID == 0 {
		return nil, nil
	}
	return setting, nil
}

// Rule 当前生效规则的计价表示
func (s *GiftSettingService) Rule(ctx context.Context) (*checkout.GiftRule, error) {
	setting, err := s.Active(ctx)
	if err != nil || setting == nil {
		return nil, err
	}
	return &checkout.GiftRule{
		ThresholdType:  setting.ThresholdType,
		ThresholdValue: setting.ThresholdValue.Decimal,
		GiftProductID:  setting.GiftProductID,
	}, nil
}

// GetByID 详情
func (s *GiftSettingService) GetByID(id uint) (*models.GiftSetting, error) {
	setting, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, ErrNotFound
	}
	return setting, nil
}

// Create 创建
func (s *GiftSettingService) Create(ctx context.Context, input GiftSettingInput) (*models.GiftSetting, error) {
	setting := &models.GiftSetting{IsActive: true}
	if err := s.apply(setting, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(setting); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyActiveGiftSetting)
	return setting, nil
}

// Update 更新
func (s *GiftSettingService) Update(ctx context.Context, id uint, input GiftSettingInput) (*models.GiftSetting, error) {
	setting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(setting, input); err != nil {
		return nil, err
	}
	setting.GiftProduct = nil
	if err := s.repo.Update(setting); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyActiveGiftSetting)
	return setting, nil
}

// Delete 删除
func (s *GiftSettingService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	_ = cache.Del(ctx, cache.KeyActiveGiftSetting)
	return nil
}

func (s *GiftSettingService) apply(setting *models.GiftSetting, input GiftSettingInput) error {
	thresholdType := strings.ToLower(strings.TrimSpace(input.ThresholdType))
	if thresholdType != constants.GiftThresholdAmount && thresholdType != constants.GiftThresholdCount {
		return ErrGiftSettingInvalid
	}
	if !input.ThresholdValue.IsPositive() {
		return ErrGiftSettingInvalid
	}
	if thresholdType == constants.GiftThresholdCount && !input.ThresholdValue.Equal(input.ThresholdValue.Truncate(0)) {
		return ErrGiftSettingInvalid
	}
	product, err := s.productRepo.GetByID(input.GiftProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrGiftSettingInvalid
	}
	setting.ThresholdType = thresholdType
	setting.ThresholdValue = models.NewMoneyFromDecimal(input.ThresholdValue)
	setting.GiftProductID = product.ID
	if input.IsActive != nil {
		setting.IsActive = *input.IsActive
	}
	return nil
}
