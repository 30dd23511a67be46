package models

import "time"

// GiftSetting 满赠规则：按金额或件数门槛自动附赠商品
type GiftSetting struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	ThresholdType  string    `gorm:"type:varchar(10);not null" json:"threshold_type"`              // amount / count
	ThresholdValue Money     `gorm:"type:decimal(20,2);not null;default:0" json:"threshold_value"` // 门槛值
	GiftProductID  uint      `gorm:"index;not null" json:"gift_product_id"`                        // 赠品商品ID
	IsActive       bool      `gorm:"not null;index" json:"is_active"`                              // 是否启用
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                   // 更新时间

	GiftProduct *Product `gorm:"foreignKey:GiftProductID" json:"gift_product,omitempty"` // 赠品
}

// TableName 指定表名
func (GiftSetting) TableName() string {
	return "gift_settings"
}
