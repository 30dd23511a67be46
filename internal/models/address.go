package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 用户收货地址
type Address struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`               // 用户ID
	Label     string         `gorm:"type:varchar(60)" json:"label"`               // 标签（家/公司）
	City      string         `gorm:"type:varchar(80);not null" json:"city"`       // 省/市
	District  string         `gorm:"type:varchar(80);not null" json:"district"`   // 区
	Khoroo    string         `gorm:"type:varchar(80);not null" json:"khoroo"`     // 街道
	Address   string         `gorm:"type:varchar(500);not null" json:"address"`   // 详细地址
	Phone     string         `gorm:"type:varchar(32)" json:"phone"`               // 收件电话
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`    // 是否默认
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
