package service

import (
	"strings"

	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"gorm.io/gorm"
)

// AddressService 收货地址
type AddressService struct {
	repo repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(repo repository.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// AddressInput 地址输入
type AddressInput struct {
	Label     string `json:"label"`
	City      string `json:"city"`
	District  string `json:"district"`
	Khoroo    string `json:"khoroo"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

// List 地址列表
func (s *AddressService) List(session *Session) ([]models.Address, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	return s.repo.ListByUser(session.UserID())
}

// Get 地址详情
func (s *AddressService) Get(session *Session, id uint) (*models.Address, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	address, err := s.repo.GetByIDAndUser(id, session.UserID())
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	return address, nil
}

// Create 新增地址
func (s *AddressService) Create(session *Session, input AddressInput) (*models.Address, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	address := &models.Address{UserID: session.UserID()}
	if err := applyAddressInput(address, input); err != nil {
		return nil, err
	}
	return address, s.save(address, true)
}

// Update 修改地址
func (s *AddressService) Update(session *Session, id uint, input AddressInput) (*models.Address, error) {
	address, err := s.Get(session, id)
	if err != nil {
		return nil, err
	}
	if err := applyAddressInput(address, input); err != nil {
		return nil, err
	}
	return address, s.save(address, false)
}

// Delete 删除地址
func (s *AddressService) Delete(session *Session, id uint) error {
	if _, err := s.Get(session, id); err != nil {
		return err
	}
	return s.repo.Delete(id, session.UserID())
}

// save 设为默认时先取消其他默认地址
func (s *AddressService) save(address *models.Address, create bool) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(address.UserID); err != nil {
				return err
			}
		}
		if create {
			return repo.Create(address)
		}
		return repo.Update(address)
	})
}

func applyAddressInput(address *models.Address, input AddressInput) error {
	city := strings.TrimSpace(input.City)
	district := strings.TrimSpace(input.District)
	khoroo := strings.TrimSpace(input.Khoroo)
	detail := strings.TrimSpace(input.Address)
	if city == "" || district == "" || khoroo == "" || detail == "" {
		return ErrAddressInvalid
	}
	address.Label = strings.TrimSpace(input.Label)
	address.City = city
	address.District = district
	address.Khoroo = khoroo
	address.Address = detail
	address.Phone = strings.TrimSpace(input.Phone)
	address.IsDefault = input.IsDefault
	return nil
}
