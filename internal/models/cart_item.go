package models

import "time"

// CartItem 购物车项，下单完成后整体清空
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"user_id"`                       // 用户ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`                    // 商品ID
	Size      string    `gorm:"type:varchar(40);not null;default:'';uniqueIndex:idx_cart_line" json:"size"`  // 尺码
	Color     string    `gorm:"type:varchar(40);not null;default:'';uniqueIndex:idx_cart_line" json:"color"` // 颜色
	IsGift    bool      `gorm:"not null;default:false;uniqueIndex:idx_cart_line" json:"is_gift"`         // 赠品（不计入小计）
	Quantity  int       `gorm:"not null" json:"quantity"`                                                // 数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                              // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
