package models

import (
	"time"

	"gorm.io/gorm"
)

// Banner 首页横幅
type Banner struct {
	ID          uint           `gorm:"primarykey" json:"id"`                        // 主键
	Title       string         `gorm:"type:varchar(200)" json:"title"`              // 标题
	Image       string         `gorm:"type:varchar(500);not null" json:"image"`     // 主图
	MobileImage string         `gorm:"type:varchar(500)" json:"mobile_image"`       // 移动端图片
	Link        string         `gorm:"type:varchar(1000)" json:"link"`              // 跳转链接
	IsActive    bool           `gorm:"not null;index" json:"is_active"`             // 是否启用
	StartAt     *time.Time     `gorm:"index" json:"start_at"`                       // 生效时间
	EndAt       *time.Time     `gorm:"index" json:"end_at"`                         // 失效时间
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`           // 排序
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除
}

// TableName 指定表名
func (Banner) TableName() string {
	return "banners"
}
