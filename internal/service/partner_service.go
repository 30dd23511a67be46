package service

import (
	"context"
	"strings"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// PartnerService 合作伙伴
type PartnerService struct {
	repo repository.PartnerRepository
}

// NewPartnerService 创建合作伙伴服务
func NewPartnerService(repo repository.PartnerRepository) *PartnerService {
	return &PartnerService{repo: repo}
}

// PartnerInput 创建/更新输入
type PartnerInput struct {
	Name      string `json:"name"`
	Logo      string `json:"logo"`
	Link      string `json:"link"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

// ListAdmin 后台列表
func (s *PartnerService) ListAdmin(page, pageSize int) ([]models.Partner, int64, error) {
	return s.repo.List(repository.PartnerListFilter{Page: page, PageSize: pageSize})
}

// ListPublic 前台展示
func (s *PartnerService) ListPublic(ctx context.Context) ([]models.Partner, error) {
	return cache.Remember(ctx, cache.KeyPublicPartners, cache.PublicTTL, func() ([]models.Partner, error) {
		partners, _, err := s.repo.List(repository.PartnerListFilter{OnlyActive: true})
		return partners, err
	})
}

// GetByID 详情
func (s *PartnerService) GetByID(id uint) (*models.Partner, error) {
	partner, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, ErrNotFound
	}
	return partner, nil
}

// Create 创建
func (s *PartnerService) Create(ctx context.Context, input PartnerInput) (*models.Partner, error) {
	partner := &models.Partner{IsActive: true}
	if err := applyPartnerInput(partner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(partner); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicPartners)
	return partner, nil
}

// Update 更新
func (s *PartnerService) Update(ctx context.Context, id uint, input PartnerInput) (*models.Partner, error) {
	partner, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := applyPartnerInput(partner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(partner); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicPartners)
	return partner, nil
}

// Delete 删除
func (s *PartnerService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	_ = cache.Del(ctx, cache.KeyPublicPartners)
	return nil
}

func applyPartnerInput(partner *models.Partner, input PartnerInput) error {
	name := strings.TrimSpace(input.Name)
	logo := strings.TrimSpace(input.Logo)
	if name == "" || logo == "" {
		return ErrPartnerInvalid
	}
	partner.Name = name
	partner.Logo = logo
	partner.Link = strings.TrimSpace(input.Link)
	partner.SortOrder = input.SortOrder
	if input.IsActive != nil {
		partner.IsActive = *input.IsActive
	}
	return nil
}
