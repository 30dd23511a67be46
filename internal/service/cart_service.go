package service

import (
	"strings"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const maxCartQuantity = 99

// CartLine 购物车行（响应）
type CartLine struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	IsGift    bool            `json:"is_gift"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// List 获取购物车，下架商品自动移除
func (s *CartService) List(session *Session) ([]CartLine, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	items, err := s.cartRepo.ListByUser(session.UserID())
	if err != nil {
		return nil, err
	}
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			if err := s.cartRepo.Delete(item.UserID, item.ID); err != nil {
				logger.Warnw("cart_drop_inactive_item_failed", "item_id", item.ID, "user_id", item.UserID, "error", err)
			}
			continue
		}
		lines = append(lines, toCartLine(item))
	}
	return lines, nil
}

// Add 加入购物车，同规格合并数量
func (s *CartService) Add(session *Session, input AddCartItemInput) (*CartLine, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	if input.ProductID == 0 || input.Quantity <= 0 || input.Quantity > maxCartQuantity {
		return nil, ErrCartItemInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive || product.IsGiftOnly {
		return nil, ErrProductUnavailable
	}
	size := strings.TrimSpace(input.Size)
	color := strings.TrimSpace(input.Color)
	if !optionAllowed(product.Sizes, size) || !optionAllowed(product.Colors, color) {
		return nil, ErrCartItemInvalid
	}

	item := &models.CartItem{
		UserID:    session.UserID(),
		ProductID: product.ID,
		Size:      size,
		Color:     color,
		Quantity:  input.Quantity,
	}
	existing, err := s.cartRepo.FindVariant(item)
	if err != nil {
		return nil, err
	}
	merged := input.Quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if merged > maxCartQuantity {
		return nil, ErrCartItemInvalid
	}
	if !stockCovers(product, merged) {
		return nil, ErrProductUnavailable
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	item.Product = product
	line := toCartLine(*item)
	return &line, nil
}

// UpdateQuantity 修改数量，0 表示删除
func (s *CartService) UpdateQuantity(session *Session, itemID uint, quantity int) error {
	if !session.IsUser() {
		return ErrInvalidToken
	}
	if quantity < 0 || quantity > maxCartQuantity {
		return ErrCartItemInvalid
	}
	item, err := s.cartRepo.GetByID(session.UserID(), itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if quantity == 0 {
		return s.cartRepo.Delete(session.UserID(), itemID)
	}
	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive || !stockCovers(product, quantity) {
		return ErrProductUnavailable
	}
	return s.cartRepo.UpdateQuantity(session.UserID(), itemID, quantity)
}

// stockCovers 库存为负表示不限量
func stockCovers(product *models.Product, quantity int) bool {
	return product.Stock < 0 || quantity <= product.Stock
}

// Remove 删除购物车项
func (s *CartService) Remove(session *Session, itemID uint) error {
	if !session.IsUser() {
		return ErrInvalidToken
	}
	return s.cartRepo.Delete(session.UserID(), itemID)
}

// Clear 清空购物车
func (s *CartService) Clear(session *Session) error {
	if !session.IsUser() {
		return ErrInvalidToken
	}
	return s.cartRepo.ClearByUser(session.UserID())
}

// pricingLines 转换为计价行
func pricingLines(lines []CartLine) []checkout.Line {
	out := make([]checkout.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, checkout.Line{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
			IsGift:    line.IsGift,
		})
	}
	return out
}

func toCartLine(item models.CartItem) CartLine {
	line := CartLine{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Color:     item.Color,
		IsGift:    item.IsGift,
		Price:     decimal.Zero,
		LineTotal: decimal.Zero,
	}
	if item.Product != nil {
		line.Name = item.Product.Name
		if len(item.Product.Images) > 0 {
			line.Image = item.Product.Images[0]
		}
		line.Price = item.Product.Price.Decimal
	}
	if !line.IsGift {
		line.LineTotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
	}
	return line
}

func optionAllowed(options models.StringArray, value string) bool {
	if len(options) == 0 {
		return value == ""
	}
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
