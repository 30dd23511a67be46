package models

import (
	"time"

	"gorm.io/gorm"
)

// BankAccount 银行转账收款账户
type BankAccount struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                  // 主键
	BankName      string         `gorm:"type:varchar(120);not null" json:"bank_name"`           // 银行名称
	AccountNumber string         `gorm:"type:varchar(64);not null" json:"account_number"`       // 账号
	HolderName    string         `gorm:"type:varchar(120);not null" json:"holder_name"`         // 户名
	ColorScheme   string         `gorm:"type:varchar(40)" json:"color_scheme"`                  // 前端展示配色
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                     // 排序
	IsActive      bool           `gorm:"not null;index" json:"is_active"`                       // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除
}

// TableName 指定表名
func (BankAccount) TableName() string {
	return "bank_accounts"
}
