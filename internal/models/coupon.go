package models

import "time"

// Coupon 优惠码，只停用不删除
type Coupon struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                             // 主键
	Code               string     `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`                 // 6 位大写字母
	DiscountPercentage int        `gorm:"not null" json:"discount_percentage"`                              // 折扣百分比（1-100）
	ExpiresAt          *time.Time `gorm:"index" json:"expires_at"`                                          // 失效时间
	IsActive           bool       `gorm:"not null;index" json:"is_active"`                                  // 是否启用
	Description        string     `gorm:"type:varchar(255)" json:"description"`                             // 后台备注
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt          time.Time  `json:"updated_at"`                                                       // 更新时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
