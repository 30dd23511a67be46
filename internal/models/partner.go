package models

import (
	"time"

	"gorm.io/gorm"
)

// Partner 合作伙伴
type Partner struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`       // 名称
	Logo      string         `gorm:"type:varchar(500);not null" json:"logo"`       // Logo 地址
	Link      string         `gorm:"type:varchar(1000)" json:"link"`               // 跳转链接
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`            // 排序
	IsActive  bool           `gorm:"not null;index" json:"is_active"`              // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除
}

// TableName 指定表名
func (Partner) TableName() string {
	return "partners"
}
