package repository

import (
	"errors"

	"github.com/tavan-shop/storefront/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByID(userID, id uint) (*models.CartItem, error)
	FindVariant(item *models.CartItem) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	UpdateQuantity(userID, id uint, quantity int) error
	Delete(userID, id uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车项（含商品）
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 获取用户的单个购物车项
func (r *GormCartRepository) GetByID(userID, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindVariant 查找同一商品同规格的已有购物车项
func (r *GormCartRepository) FindVariant(item *models.CartItem) (*models.CartItem, error) {
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ? AND size = ? AND color = ? AND is_gift = ?",
		item.UserID, item.ProductID, item.Size, item.Color, item.IsGift).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existing, nil
}

// Upsert 同一商品同规格合并数量
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	existing, err := r.FindVariant(item)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(item).Error
	}
	if err := r.db.Model(&existing).Update("quantity", existing.Quantity+item.Quantity).Error; err != nil {
		return err
	}
	item.ID = existing.ID
	item.Quantity = existing.Quantity + item.Quantity
	return nil
}

// UpdateQuantity 修改数量
func (r *GormCartRepository) UpdateQuantity(userID, id uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ? AND user_id = ?", id, userID).Update("quantity", quantity).Error
}

// Delete 删除购物车项
func (r *GormCartRepository) Delete(userID, id uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{}).Error
}

// ClearByUser 清空购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
