package repository

import (
	"github.com/tavan-shop/storefront/internal/models"

	"gorm.io/gorm"
)

// CouponUsageRepository 优惠码使用记录数据访问接口
type CouponUsageRepository interface {
	Create(usage *models.CouponUsage) error
	ExistsForUser(couponID, userID uint) (bool, error)
	ListByCoupon(couponID uint) ([]models.CouponUsage, error)
	WithTx(tx *gorm.DB) *GormCouponUsageRepository
}

// GormCouponUsageRepository GORM 实现
type GormCouponUsageRepository struct {
	db *gorm.DB
}

// NewCouponUsageRepository 创建优惠码使用记录仓库
func NewCouponUsageRepository(db *gorm.DB) *GormCouponUsageRepository {
	return &GormCouponUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponUsageRepository) WithTx(tx *gorm.DB) *GormCouponUsageRepository {
	if tx == nil {
		return r
	}
	return &GormCouponUsageRepository{db: tx}
}

// Create 写入使用记录，(coupon_id, user_id) 唯一
func (r *GormCouponUsageRepository) Create(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}

// ExistsForUser 用户是否已使用过该优惠码
func (r *GormCouponUsageRepository) ExistsForUser(couponID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByCoupon 获取优惠码的使用记录
func (r *GormCouponUsageRepository) ListByCoupon(couponID uint) ([]models.CouponUsage, error) {
	var usages []models.CouponUsage
	if err := r.db.Where("coupon_id = ?", couponID).Order("id desc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}
