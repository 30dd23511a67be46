package repository

import (
	"errors"

	"github.com/tavan-shop/storefront/internal/models"

	"gorm.io/gorm"
)

// BankAccountRepository 收款账户数据访问接口
type BankAccountRepository interface {
	List(onlyActive bool) ([]models.BankAccount, error)
	GetByID(id uint) (*models.BankAccount, error)
	Create(account *models.BankAccount) error
	Update(account *models.BankAccount) error
	Delete(id uint) error
}

// GormBankAccountRepository GORM 实现
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository 创建收款账户仓库
func NewBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// List 收款账户列表（数量少，不分页）
func (r *GormBankAccountRepository) List(onlyActive bool) ([]models.BankAccount, error) {
	query := r.db.Model(&models.BankAccount{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var accounts []models.BankAccount
	if err := query.Order("sort_order DESC, id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetByID 根据 ID 获取
func (r *GormBankAccountRepository) GetByID(id uint) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create 创建
func (r *GormBankAccountRepository) Create(account *models.BankAccount) error {
	return r.db.Create(account).Error
}

// Update 更新
func (r *GormBankAccountRepository) Update(account *models.BankAccount) error {
	return r.db.Save(account).Error
}

// Delete 删除
func (r *GormBankAccountRepository) Delete(id uint) error {
	return r.db.Delete(&models.BankAccount{}, id).Error
}
