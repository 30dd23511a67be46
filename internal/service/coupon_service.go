package service

import (
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠码校验
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
	now        func() time.Time
}

// NewCouponService 创建优惠码服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo, usageRepo: usageRepo, now: time.Now}
}

// CouponPreview 优惠码试算结果
type CouponPreview struct {
	Code               string          `json:"code"`
	DiscountPercentage int             `json:"discount_percentage"`
	Discount           decimal.Decimal `json:"discount"`
	ExpiresAt          *time.Time      `json:"expires_at"`
}

// Resolve 查找并校验优惠码对该用户是否可用
func (s *CouponService) Resolve(code string, userID uint) (*models.Coupon, error) {
	normalized := normalizeCouponCode(code)
	if !isCouponCode(normalized) {
		return nil, ErrCouponInvalid
	}
	coupon, err := s.couponRepo.GetByCode(normalized)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return coupon, ErrCouponInactive
	}
	if coupon.ExpiresAt != nil && !s.now().Before(*coupon.ExpiresAt) {
		return coupon, ErrCouponExpired
	}
	if userID != 0 {
		used, err := s.usageRepo.ExistsForUser(coupon.ID, userID)
		if err != nil {
			return coupon, err
		}
		if used {
			return coupon, ErrCouponAlreadyUsed
		}
	}
	return coupon, nil
}

// Preview 按小计试算折扣
func (s *CouponService) Preview(code string, userID uint, subtotal decimal.Decimal) (*CouponPreview, error) {
	coupon, err := s.Resolve(code, userID)
	if err != nil {
		return nil, err
	}
	return &CouponPreview{
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
		Discount:           checkout.CouponDiscount(subtotal, coupon.DiscountPercentage),
		ExpiresAt:          coupon.ExpiresAt,
	}, nil
}

// couponTerms 转换为计价条款
func couponTerms(coupon *models.Coupon) *checkout.CouponTerms {
	if coupon == nil {
		return nil
	}
	return &checkout.CouponTerms{
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
		ExpiresAt:          coupon.ExpiresAt,
		IsActive:           coupon.IsActive,
	}
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// isCouponCode 6 位 A-Z
func isCouponCode(code string) bool {
	if len(code) != couponCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
