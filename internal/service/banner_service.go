package service

import (
	"context"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

const publicBannerLimit = 10

// BannerService Banner 业务服务
type BannerService struct {
	repo repository.BannerRepository
}

// NewBannerService 创建 Banner 服务
func NewBannerService(repo repository.BannerRepository) *BannerService {
	return &BannerService{repo: repo}
}

// BannerInput 创建/更新 Banner 输入
type BannerInput struct {
	Title       string     `json:"title"`
	Image       string     `json:"image"`
	MobileImage string     `json:"mobile_image"`
	Link        string     `json:"link"`
	IsActive    *bool      `json:"is_active"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	SortOrder   int        `json:"sort_order"`
}

// ListAdmin 后台 Banner 列表
func (s *BannerService) ListAdmin(filter repository.BannerListFilter) ([]models.Banner, int64, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(filter)
}

// ListPublic 当前有效的 Banner
func (s *BannerService) ListPublic(ctx context.Context) ([]models.Banner, error) {
	return cache.Remember(ctx, cache.KeyPublicBanners, cache.PublicTTL, func() ([]models.Banner, error) {
		return s.repo.ListValid(time.Now(), publicBannerLimit)
	})
}

// GetByID 根据 ID 获取 Banner
func (s *BannerService) GetByID(id uint) (*models.Banner, error) {
	banner, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if banner == nil {
		return nil, ErrNotFound
	}
	return banner, nil
}

// Create 创建 Banner
func (s *BannerService) Create(ctx context.Context, input BannerInput) (*models.Banner, error) {
	banner := &models.Banner{IsActive: true}
	if err := applyBannerInput(banner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(banner); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicBanners)
	return banner, nil
}

// Update 更新 Banner
func (s *BannerService) Update(ctx context.Context, id uint, input BannerInput) (*models.Banner, error) {
	banner, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := applyBannerInput(banner, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(banner); err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, cache.KeyPublicBanners)
	return banner, nil
}

// Delete 删除 Banner
func (s *BannerService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	_ = cache.Del(ctx, cache.KeyPublicBanners)
	return nil
}

func applyBannerInput(banner *models.Banner, input BannerInput) error {
	image := strings.TrimSpace(input.Image)
	if image == "" {
		return ErrBannerInvalid
	}
	if input.StartAt != nil && input.EndAt != nil && input.EndAt.Before(*input.StartAt) {
		return ErrBannerInvalid
	}
	banner.Title = strings.TrimSpace(input.Title)
	banner.Image = image
	banner.MobileImage = strings.TrimSpace(input.MobileImage)
	banner.Link = strings.TrimSpace(input.Link)
	banner.StartAt = input.StartAt
	banner.EndAt = input.EndAt
	banner.SortOrder = input.SortOrder
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}
	return nil
}
