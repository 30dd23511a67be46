package repository

import (
	"errors"

	"github.com/tavan-shop/storefront/internal/models"

	"gorm.io/gorm"
)

// GiftSettingRepository 满赠规则数据访问接口
type GiftSettingRepository interface {
	List() ([]models.GiftSetting, error)
	GetActive() (*models.GiftSetting, error)
	GetByID(id uint) (*models.GiftSetting, error)
	Create(setting *models.GiftSetting) error
	Update(setting *models.GiftSetting) error
	Delete(id uint) error
}

// GormGiftSettingRepository GORM 实现
type GormGiftSettingRepository struct {
	db *gorm.DB
}

// NewGiftSettingRepository 创建满赠规则仓库
func NewGiftSettingRepository(db *gorm.DB) *GormGiftSettingRepository {
	return &GormGiftSettingRepository{db: db}
}

// List 全部规则
func (r *GormGiftSettingRepository) List() ([]models.GiftSetting, error) {
	var settings []models.GiftSetting
	if err := r.db.Preload("GiftProduct").Order("id desc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// GetActive 获取生效规则，多条启用时取最新一条
func (r *GormGiftSettingRepository) GetActive() (*models.GiftSetting, error) {
	var setting models.GiftSetting
	err := r.db.Preload("GiftProduct").Where("is_active = ?", true).Order("id desc").First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// GetByID 根据 ID 获取
func (r *GormGiftSettingRepository) GetByID(id uint) (*models.GiftSetting, error) {
	var setting models.GiftSetting
	if err := r.db.Preload("GiftProduct").First(&setting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Create 创建
func (r *GormGiftSettingRepository) Create(setting *models.GiftSetting) error {
	return r.db.Create(setting).Error
}

// Update 更新
func (r *GormGiftSettingRepository) Update(setting *models.GiftSetting) error {
	return r.db.Omit("GiftProduct").Save(setting).Error
}

// Delete 删除
func (r *GormGiftSettingRepository) Delete(id uint) error {
	return r.db.Delete(&models.GiftSetting{}, id).Error
}
