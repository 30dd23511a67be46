package service

import (
	"context"
	"strings"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// BankAccountService 银行转账收款账户
type BankAccountService struct {
	repo repository.BankAccountRepository
}

// NewBankAccountService 创建服务
func NewBankAccountService(repo repository.BankAccountRepository) *BankAccountService {
	return &BankAccountService{repo: repo}
}

// BankAccountInput 创建/更新输入
type BankAccountInput struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	HolderName    string `json:"holder_name"`
	ColorScheme   string `json:"color_scheme"`
	SortOrder     int    `json:"sort_order"`
	IsActive      *bool  `json:"is_active"`
}

// ListAdmin 全部账户
func (s *BankAccountService) ListAdmin() ([]models.BankAccount, error) {
	return s.repo.List(false)
}

// ListActive 启用的账户（银行转账页展示）
func (s *BankAccountService) ListActive(ctx context.Context) ([]models.BankAccount, error) {
	return cache.Remember(ctx, cache.KeyPublicBankAccounts, cache.PublicTTL, func() ([]models.BankAccount, error) {
		return s.repo.List(true)
	})
}

// GetByID 详情
func (s *BankAccountService) GetByID(id uint) (*models.BankAccount, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// Create 创建
func (s *BankAccountService) Create(ctx context.Context, input BankAccountInput) (*models.BankAccount, error) {
	account := &models.BankAccount{IsActive: true}
	if err := applyBankAccountInput(account, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicBankAccounts)
	return account, nil
}

// Update 更新
func (s *BankAccountService) Update(ctx context.Context, id uint, input BankAccountInput) (*models.BankAccount, error) {
	account, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := applyBankAccountInput(account, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(account); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicBankAccounts)
	return account, nil
}

// Delete 删除
func (s *BankAccountService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	_ = cache.Del(ctx, cache.KeyPublicBankAccounts)
	return nil
}

func applyBankAccountInput(account *models.BankAccount, input BankAccountInput) error {
	bankName := strings.TrimSpace(input.BankName)
	number := strings.TrimSpace(input.AccountNumber)
	holder := strings.TrimSpace(input.HolderName)
	if bankName == "" || number == "" || holder == "" {
		return ErrBankAccountInvalid
	}
	account.BankName = bankName
	account.AccountNumber = number
	account.HolderName = holder
	account.ColorScheme = strings.TrimSpace(input.ColorScheme)
	account.SortOrder = input.SortOrder
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	return nil
}
