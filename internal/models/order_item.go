package models

import "time"

// OrderItem 订单项
type OrderItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID  uint      `gorm:"index;not null" json:"product_id"`                         // 商品ID
	Title      string    `gorm:"type:varchar(200);not null" json:"title"`                  // 商品名称快照
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity   int       `gorm:"not null" json:"quantity"`                                 // 数量
	Size       string    `gorm:"type:varchar(40)" json:"size,omitempty"`                   // 尺码
	Color      string    `gorm:"type:varchar(40)" json:"color,omitempty"`                  // 颜色
	IsGift     bool      `gorm:"not null;default:false" json:"is_gift"`                    // 是否赠品
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计（赠品为 0）
	CreatedAt  time.Time `json:"created_at"`                                               // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
