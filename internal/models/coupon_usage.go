package models

import "time"

// CouponUsage 优惠码使用记录，同一用户对同一优惠码只能有一条
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint      `gorm:"not null;uniqueIndex:idx_coupon_usage_once" json:"coupon_id"`  // 优惠码ID
	UserID         uint      `gorm:"not null;uniqueIndex:idx_coupon_usage_once" json:"user_id"`    // 用户ID
	OrderID        *uint     `gorm:"index" json:"order_id"`                                        // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 使用时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usage"
}
