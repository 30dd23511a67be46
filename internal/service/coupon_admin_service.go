package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

const (
	couponCodeLength   = 6
	couponCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	couponCodeAttempts = 5
)

// CouponAdminService 后台优惠码管理
type CouponAdminService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponAdminService 创建后台优惠码服务
func NewCouponAdminService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponAdminService {
	return &CouponAdminService{couponRepo: couponRepo, usageRepo: usageRepo}
}

// CouponInput 创建/更新优惠码输入
type CouponInput struct {
	Code               string     `json:"code"`
	DiscountPercentage int        `json:"discount_percentage"`
	ExpiresAt          *time.Time `json:"expires_at"`
	IsActive           *bool      `json:"is_active"`
	Description        string     `json:"description"`
}

// Create 创建优惠码，未指定编码时随机生成
func (s *CouponAdminService) Create(input CouponInput) (*models.Coupon, error) {
	if input.DiscountPercentage <= 0 || input.DiscountPercentage > 100 {
		return nil, ErrCouponInvalid
	}
	coupon := &models.Coupon{
		DiscountPercentage: input.DiscountPercentage,
		ExpiresAt:          input.ExpiresAt,
		IsActive:           true,
		Description:        strings.TrimSpace(input.Description),
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	code := normalizeCouponCode(input.Code)
	if code != "" {
		if !isCouponCode(code) {
			return nil, ErrCouponInvalid
		}
		coupon.Code = code
		if err := s.couponRepo.Create(coupon); err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, ErrCouponInvalid
			}
			return nil, err
		}
		return coupon, nil
	}

	for attempt := 0; attempt < couponCodeAttempts; attempt++ {
		generated, err := randomCouponCode()
		if err != nil {
			return nil, err
		}
		coupon.ID = 0
		coupon.Code = generated
		err = s.couponRepo.Create(coupon)
		if err == nil {
			return coupon, nil
		}
		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, ErrCouponInvalid
}

// Update 修改折扣、有效期、备注与启用状态，编码不可修改
func (s *CouponAdminService) Update(id uint, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if input.DiscountPercentage != 0 {
		if input.DiscountPercentage < 0 || input.DiscountPercentage > 100 {
			return nil, ErrCouponInvalid
		}
		coupon.DiscountPercentage = input.DiscountPercentage
	}
	coupon.ExpiresAt = input.ExpiresAt
	coupon.Description = strings.TrimSpace(input.Description)
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Deactivate 停用优惠码
func (s *CouponAdminService) Deactivate(id uint) error {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	return s.couponRepo.Deactivate(id)
}

// Get 优惠码详情
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List 优惠码列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// Usages 使用记录
func (s *CouponAdminService) Usages(id uint) ([]models.CouponUsage, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.usageRepo.ListByCoupon(id)
}

func randomCouponCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(couponCodeAlphabet)))
	for i := 0; i < couponCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(couponCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
