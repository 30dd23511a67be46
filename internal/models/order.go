package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单，字段为下单时快照
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	Currency       string         `gorm:"type:varchar(8);not null" json:"currency"`                     // 币种
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	ShippingFee    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`    // 运费
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠码ID
	DeliveryMethod string         `gorm:"type:varchar(20);not null" json:"delivery_method"`             // 配送方式
	InvoiceType    string         `gorm:"type:varchar(20);not null" json:"invoice_type"`                // 发票类型
	ContactName    string         `gorm:"type:varchar(120);not null" json:"contact_name"`               // 联系人
	ContactEmail   string         `gorm:"type:varchar(200);not null" json:"contact_email"`              // 联系邮箱
	ContactPhone   string         `gorm:"type:varchar(32);not null" json:"contact_phone"`               // 联系电话
	RegisterNumber string         `gorm:"type:varchar(32)" json:"register_number,omitempty"`            // 企业/纳税人登记号
	City           string         `gorm:"type:varchar(80)" json:"city,omitempty"`                       // 省/市
	District       string         `gorm:"type:varchar(80)" json:"district,omitempty"`                   // 区
	Khoroo         string         `gorm:"type:varchar(80)" json:"khoroo,omitempty"`                     // 街道（khoroo）
	Address        string         `gorm:"type:varchar(500)" json:"address,omitempty"`                   // 详细地址
	PaymentMethod  string         `gorm:"type:varchar(20);not null" json:"payment_method"`              // 支付方式
	PaymentNo      string         `gorm:"index" json:"payment_no"`                                      // 支付单号
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	CanceledAt     *time.Time     `json:"canceled_at"`                                                  // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
