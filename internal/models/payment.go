package models

import "time"

// Payment 结账支付单：QPay 发票或银行转账，成功后生成订单
type Payment struct {
	ID            uint         `gorm:"primarykey" json:"id"`                                   // 主键
	PaymentNo     string       `gorm:"uniqueIndex;not null" json:"payment_no"`                 // 支付单号（发给网关的订单引用）
	UserID        uint         `gorm:"index;not null" json:"user_id"`                          // 用户ID
	Method        string       `gorm:"type:varchar(20);not null" json:"method"`                // qpay / bank_transfer
	Status        string       `gorm:"type:varchar(20);index;not null" json:"status"`          // 支付状态
	Currency      string       `gorm:"type:varchar(8);not null" json:"currency"`               // 币种
	Amount        Money        `gorm:"type:decimal(20,2);not null" json:"amount"`              // 应付金额
	Subtotal      Money        `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`  // 下单时商品小计
	CouponID      *uint        `gorm:"index" json:"coupon_id,omitempty"`                       // 优惠码ID
	Draft         JSON         `gorm:"type:json" json:"draft"`                                 // 订单草稿快照
	InvoiceID     string       `gorm:"type:varchar(80);index" json:"invoice_id,omitempty"`     // QPay 发票ID
	QRText        string       `gorm:"type:text" json:"qr_text,omitempty"`                     // 二维码文本
	QRImage       string       `gorm:"type:text" json:"qr_image,omitempty"`                    // 二维码图片
	ShortURL      string       `gorm:"type:varchar(500)" json:"short_url,omitempty"`           // 短链接
	Links         PaymentLinks `gorm:"type:json" json:"links,omitempty"`                       // 银行 App 深链
	OrderID       *uint        `gorm:"index" json:"order_id,omitempty"`                        // 生成的订单ID
	FailureReason string       `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`      // 失败原因
	PaidAt        *time.Time   `gorm:"index" json:"paid_at"`                                   // 网关确认支付时间
	ExpiresAt     *time.Time   `gorm:"index" json:"expires_at"`                                // 过期时间
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt     time.Time    `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
