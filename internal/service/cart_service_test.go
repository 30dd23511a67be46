package service

import (
	"errors"
	"testing"

	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCartAddMergesAndValidates(t *testing.T) {
	f := newCheckoutFixture(t, 30000)

	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: f.product.ID, Quantity: 1, Size: "XXL"}); !errors.Is(err, ErrCartItemInvalid) {
		t.Fatalf("unknown size should be rejected, got %v", err)
	}
	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: f.product.ID, Quantity: 11, Size: "M"}); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("quantity over stock should be rejected, got %v", err)
	}

	f.addToCart(t, 1)
	f.addToCart(t, 2)
	lines, err := f.cart.List(f.session)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("expected merged line with quantity 3, got %+v", lines)
	}
	if !lines[0].LineTotal.Equal(decimal.NewFromInt(90000)) {
		t.Fatalf("unexpected line total: %s", lines[0].LineTotal)
	}

	if err := f.cart.UpdateQuantity(f.session, lines[0].ID, 0); err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	lines, _ = f.cart.List(f.session)
	if len(lines) != 0 {
		t.Fatalf("zero quantity should remove line, got %+v", lines)
	}
}

func TestCartRejectsGiftOnlyAndDropsInactive(t *testing.T) {
	f := newCheckoutFixture(t, 30000)
	gift := &models.Product{Name: "Gift bag", Price: models.NewMoneyFromInt(0), Stock: -1, IsGiftOnly: true, IsActive: true}
	if err := f.db.Create(gift).Error; err != nil {
		t.Fatalf("create gift failed: %v", err)
	}
	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: gift.ID, Quantity: 1}); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("gift-only product should be rejected, got %v", err)
	}

	f.addToCart(t, 1)
	if err := f.db.Model(&models.Product{}).Where("id = ?", f.product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	lines, err := f.cart.List(f.session)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("inactive product should drop from cart, got %+v", lines)
	}
}

func TestCartMergedQuantityRespectsStock(t *testing.T) {
	f := newCheckoutFixture(t, 30000)

	f.addToCart(t, 8)
	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: f.product.ID, Quantity: 8, Size: "M"}); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("merged quantity over stock should be rejected, got %v", err)
	}
	lines, err := f.cart.List(f.session)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 8 {
		t.Fatalf("rejected add must not change the line, got %+v", lines)
	}

	f.addToCart(t, 2)
	if err := f.cart.UpdateQuantity(f.session, lines[0].ID, 11); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("update over stock should be rejected, got %v", err)
	}
	if err := f.cart.UpdateQuantity(f.session, lines[0].ID, 5); err != nil {
		t.Fatalf("update within stock failed: %v", err)
	}
	lines, _ = f.cart.List(f.session)
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %+v", lines)
	}
}

func TestCartMergedQuantityRespectsLineCap(t *testing.T) {
	f := newCheckoutFixture(t, 30000)
	if err := f.db.Model(&models.Product{}).Where("id = ?", f.product.ID).Update("stock", -1).Error; err != nil {
		t.Fatalf("set unlimited stock failed: %v", err)
	}

	f.addToCart(t, maxCartQuantity)
	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: f.product.ID, Quantity: 1, Size: "M"}); !errors.Is(err, ErrCartItemInvalid) {
		t.Fatalf("merged quantity over line cap should be rejected, got %v", err)
	}
}

type deleteFailingCartRepo struct {
	*repository.GormCartRepository
}

func (r deleteFailingCartRepo) Delete(userID, id uint) error {
	return errors.New("database is locked")
}

func TestCartListLogsFailedInactiveDrop(t *testing.T) {
	f := newCheckoutFixture(t, 30000)
	f.addToCart(t, 1)
	if err := f.db.Model(&models.Product{}).Where("id = ?", f.product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	previous := logger.L
	logger.L = zap.New(core)
	t.Cleanup(func() { logger.L = previous })

	cart := NewCartService(deleteFailingCartRepo{repository.NewCartRepository(f.db)}, repository.NewProductRepository(f.db))
	lines, err := cart.List(f.session)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("inactive product should be hidden, got %+v", lines)
	}
	if got := logs.FilterMessage("cart_drop_inactive_item_failed").Len(); got != 1 {
		t.Fatalf("expected one drop failure log, got %d", got)
	}
}
