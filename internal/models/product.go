package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                               // 主键
	Name        string         `gorm:"type:varchar(200);not null;index" json:"name"`       // 名称
	Description string         `gorm:"type:text" json:"description"`                       // 描述
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	Images      StringArray    `gorm:"type:json" json:"images"`                            // 图片地址（前端已上传）
	Sizes       StringArray    `gorm:"type:json" json:"sizes"`                             // 可选尺码
	Colors      StringArray    `gorm:"type:json" json:"colors"`                            // 可选颜色
	Stock       int            `gorm:"not null;default:0" json:"stock"`                    // 库存（-1 不限）
	IsGiftOnly  bool           `gorm:"not null;default:false;index" json:"is_gift_only"`   // 仅作为赠品
	IsActive    bool           `gorm:"not null;index" json:"is_active"`                    // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                  // 排序
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
