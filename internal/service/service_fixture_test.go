package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/payment/qpay"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// fakeGateway 按调用次数返回支付状态
type fakeGateway struct {
	mu         sync.Mutex
	paidOn     int
	failStatus string
	createErr  error
	checkErr   error
	checks     int
	created    []qpay.CreateInvoiceInput
	canceled   []string
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, input qpay.CreateInvoiceInput) (*qpay.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, input)
	return &qpay.Invoice{
		InvoiceID: "inv-" + input.OrderRef,
		QRText:    "qr-" + input.OrderRef,
		QRImage:   "https://qr.example/" + input.OrderRef,
		Links:     []qpay.Link{{Name: "Khan bank", Link: "khanbank://q?qPay_QRcode=x"}},
	}, nil
}

func (g *fakeGateway) CheckInvoice(ctx context.Context, invoiceID string) (*qpay.CheckResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	if g.failStatus != "" {
		return &qpay.CheckResult{Status: g.failStatus}, nil
	}
	if g.paidOn > 0 && g.checks >= g.paidOn {
		return &qpay.CheckResult{Paid: true, Status: qpay.InvoiceStatusPaid}, nil
	}
	return &qpay.CheckResult{Status: qpay.InvoiceStatusOpen}, nil
}

func (g *fakeGateway) CancelInvoice(ctx context.Context, invoiceID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.canceled = append(g.canceled, invoiceID)
	return true, nil
}

func (g *fakeGateway) checkCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checks
}

type checkoutFixture struct {
	db        *gorm.DB
	gateway   *fakeGateway
	session   *Session
	product   *models.Product
	checkout  *CheckoutService
	cart      *CartService
	finalizer *OrderFinalizer
	watcher   *PaymentWatcher
	coupons   *CouponAdminService
	gifts     *GiftSettingService
	payments  *repository.GormPaymentRepository
}

func newCheckoutFixture(t *testing.T, price int64) *checkoutFixture {
	t.Helper()
	db := openServiceTestDB(t)

	user := &models.User{Email: "bat@example.mn", PasswordHash: "x", Status: "active"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	product := &models.Product{
		Name:     "Cashmere scarf",
		Price:    models.NewMoneyFromInt(price),
		Sizes:    models.StringArray{"M"},
		Stock:    10,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	gateway := &fakeGateway{}
	cfg := config.CheckoutConfig{
		FreeShippingThreshold: 120000,
		ShippingFee:           5000,
		PaymentExpireMinutes:  30,
		PollMaxAttempts:       10,
	}
	finalizer := NewOrderFinalizer(db, paymentRepo, orderRepo, cartRepo, usageRepo, productRepo)
	watcher := NewPaymentWatcher(cfg, gateway, paymentRepo, finalizer)
	watcher.interval = 10 * time.Millisecond
	t.Cleanup(watcher.Shutdown)

	cart := NewCartService(cartRepo, productRepo)
	gifts := NewGiftSettingService(repository.NewGiftSettingRepository(db), productRepo)
	svc := NewCheckoutService(CheckoutDeps{
		Config:      cfg,
		Cart:        cart,
		Coupons:     NewCouponService(couponRepo, usageRepo),
		Gifts:       gifts,
		AddressRepo: repository.NewAddressRepository(db),
		ProductRepo: productRepo,
		PaymentRepo: paymentRepo,
		Gateway:     gateway,
		Finalizer:   finalizer,
		Watcher:     watcher,
	})

	return &checkoutFixture{
		db:        db,
		gateway:   gateway,
		session:   &Session{Kind: SessionUser, SubjectID: user.ID},
		product:   product,
		checkout:  svc,
		cart:      cart,
		finalizer: finalizer,
		watcher:   watcher,
		coupons:   NewCouponAdminService(couponRepo, usageRepo),
		gifts:     gifts,
		payments:  paymentRepo,
	}
}

func (f *checkoutFixture) addToCart(t *testing.T, quantity int) {
	t.Helper()
	if _, err := f.cart.Add(f.session, AddCartItemInput{ProductID: f.product.ID, Quantity: quantity, Size: "M"}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
}

func (f *checkoutFixture) createCoupon(t *testing.T, code string, pct int) *models.Coupon {
	t.Helper()
	coupon, err := f.coupons.Create(CouponInput{Code: code, DiscountPercentage: pct})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func (f *checkoutFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func (f *checkoutFixture) reloadPayment(t *testing.T, paymentNo string) *models.Payment {
	t.Helper()
	payment, err := f.payments.GetByPaymentNo(paymentNo)
	if err != nil || payment == nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	return payment
}

func deliveryForm() checkout.DraftForm {
	return checkout.DraftForm{
		Name:           "Bat-Erdene",
		Email:          "bat@example.mn",
		Phone:          "99112233",
		DeliveryMethod: constants.DeliveryMethodDelivery,
		InvoiceType:    constants.InvoiceTypeIndividual,
		City:           "Ulaanbaatar",
		District:       "Sukhbaatar",
		Khoroo:         "1",
		Address:        "Peace avenue 10",
	}
}

var errGatewayDown = errors.New("dial tcp: connection refused")
