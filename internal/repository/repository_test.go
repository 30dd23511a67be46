package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tavan-shop/storefront/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestCouponUsageSecondInsertIsUniqueViolation(t *testing.T) {
	db := setupRepositoryTestDB(t, "coupon_usage_repo")
	repo := NewCouponUsageRepository(db)

	first := models.CouponUsage{CouponID: 1, UserID: 7}
	if err := repo.Create(&first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	second := models.CouponUsage{CouponID: 1, UserID: 7}
	err := repo.Create(&second)
	if err == nil {
		t.Fatalf("expected second insert to fail")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	other := models.CouponUsage{CouponID: 1, UserID: 8}
	if err := repo.Create(&other); err != nil {
		t.Fatalf("other user insert failed: %v", err)
	}
	used, err := repo.ExistsForUser(1, 7)
	if err != nil || !used {
		t.Fatalf("expected usage to exist, used=%v err=%v", used, err)
	}
}

func TestPaymentTransitionStatusIsExclusive(t *testing.T) {
	db := setupRepositoryTestDB(t, "payment_repo")
	repo := NewPaymentRepository(db)

	payment := models.Payment{
		PaymentNo: "PAY-TRANSITION",
		UserID:    1,
		Method:    "qpay",
		Status:    "pending",
		Currency:  "MNT",
		Amount:    models.NewMoneyFromInt(1000),
	}
	if err := repo.Create(&payment); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	won, err := repo.TransitionStatus(payment.ID, []string{"pending"}, "paid", nil)
	if err != nil || !won {
		t.Fatalf("first transition should win, won=%v err=%v", won, err)
	}
	won, err = repo.TransitionStatus(payment.ID, []string{"pending"}, "paid", nil)
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}
	if won {
		t.Fatalf("second transition must not win")
	}

	stored, err := repo.GetByPaymentNo("PAY-TRANSITION")
	if err != nil || stored == nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if stored.Status != "paid" {
		t.Fatalf("unexpected status: %s", stored.Status)
	}
}

func TestPaymentListStalePaidSkipsPersistedOrders(t *testing.T) {
	db := setupRepositoryTestDB(t, "payment_stale_repo")
	repo := NewPaymentRepository(db)

	now := time.Now()
	old := now.Add(-time.Hour)
	orderID := uint(9)
	payments := []models.Payment{
		{PaymentNo: "PAY-STALE", UserID: 1, Method: "qpay", Status: "paid", Currency: "MNT", Amount: models.NewMoneyFromInt(1000), PaidAt: &old},
		{PaymentNo: "PAY-FRESH", UserID: 1, Method: "qpay", Status: "paid", Currency: "MNT", Amount: models.NewMoneyFromInt(1000), PaidAt: &now},
		{PaymentNo: "PAY-DONE", UserID: 1, Method: "qpay", Status: "paid", Currency: "MNT", Amount: models.NewMoneyFromInt(1000), PaidAt: &old, OrderID: &orderID},
	}
	for i := range payments {
		if err := repo.Create(&payments[i]); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	stale, err := repo.ListStalePaid(now.Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("list stale paid failed: %v", err)
	}
	if len(stale) != 1 || stale[0].PaymentNo != "PAY-STALE" {
		t.Fatalf("expected only PAY-STALE, got %+v", stale)
	}
}

func TestPaymentGetLatestFinalizedByUser(t *testing.T) {
	db := setupRepositoryTestDB(t, "payment_latest_repo")
	repo := NewPaymentRepository(db)

	missing, err := repo.GetLatestFinalizedByUser(1)
	if err != nil || missing != nil {
		t.Fatalf("expected nil without payments, got %+v err=%v", missing, err)
	}
	for _, p := range []models.Payment{
		{PaymentNo: "PAY-OLD", UserID: 1, Method: "qpay", Status: "finalized", Currency: "MNT", Amount: models.NewMoneyFromInt(1000), Subtotal: models.NewMoneyFromInt(1000)},
		{PaymentNo: "PAY-NEW", UserID: 1, Method: "qpay", Status: "finalized", Currency: "MNT", Amount: models.NewMoneyFromInt(2000), Subtotal: models.NewMoneyFromInt(2000)},
		{PaymentNo: "PAY-OPEN", UserID: 1, Method: "qpay", Status: "pending", Currency: "MNT", Amount: models.NewMoneyFromInt(3000)},
		{PaymentNo: "PAY-OTHER", UserID: 2, Method: "qpay", Status: "finalized", Currency: "MNT", Amount: models.NewMoneyFromInt(4000)},
	} {
		p := p
		if err := repo.Create(&p); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	latest, err := repo.GetLatestFinalizedByUser(1)
	if err != nil || latest == nil {
		t.Fatalf("load latest failed: %+v err=%v", latest, err)
	}
	if latest.PaymentNo != "PAY-NEW" {
		t.Fatalf("expected PAY-NEW, got %s", latest.PaymentNo)
	}
}

func TestCartUpsertMergesSameVariant(t *testing.T) {
	db := setupRepositoryTestDB(t, "cart_repo")
	repo := NewCartRepository(db)

	if err := repo.Upsert(&models.CartItem{UserID: 1, ProductID: 2, Size: "M", Color: "black", Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Upsert(&models.CartItem{UserID: 1, ProductID: 2, Size: "M", Color: "black", Quantity: 2}); err != nil {
		t.Fatalf("upsert merge failed: %v", err)
	}
	if err := repo.Upsert(&models.CartItem{UserID: 1, ProductID: 2, Size: "L", Color: "black", Quantity: 1}); err != nil {
		t.Fatalf("upsert other size failed: %v", err)
	}
	items, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", items[0].Quantity)
	}

	found, err := repo.FindVariant(&models.CartItem{UserID: 1, ProductID: 2, Size: "M", Color: "black"})
	if err != nil || found == nil || found.Quantity != 3 {
		t.Fatalf("find variant failed: %+v err=%v", found, err)
	}
	missing, err := repo.FindVariant(&models.CartItem{UserID: 1, ProductID: 2, Size: "XL", Color: "black"})
	if err != nil || missing != nil {
		t.Fatalf("expected no variant, got %+v err=%v", missing, err)
	}
}

func TestGiftSettingGetActiveReturnsNewest(t *testing.T) {
	db := setupRepositoryTestDB(t, "gift_setting_repo")
	repo := NewGiftSettingRepository(db)

	older := models.GiftSetting{ThresholdType: "amount", ThresholdValue: models.NewMoneyFromInt(100000), GiftProductID: 1, IsActive: true}
	newer := models.GiftSetting{ThresholdType: "count", ThresholdValue: models.NewMoneyFromInt(3), GiftProductID: 2, IsActive: true}
	if err := repo.Create(&older); err != nil {
		t.Fatalf("create older failed: %v", err)
	}
	if err := repo.Create(&newer); err != nil {
		t.Fatalf("create newer failed: %v", err)
	}
	got, err := repo.GetActive()
	if err != nil || got == nil {
		t.Fatalf("get active failed: %v", err)
	}
	if got.ID != newer.ID {
		t.Fatalf("expected newest active rule, got id=%d", got.ID)
	}
}

func TestBannerListValidHonorsWindow(t *testing.T) {
	db := setupRepositoryTestDB(t, "banner_repo")
	repo := NewBannerRepository(db)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	for _, b := range []models.Banner{
		{Title: "live", Image: "a.jpg", IsActive: true},
		{Title: "future", Image: "b.jpg", IsActive: true, StartAt: &future},
		{Title: "ended", Image: "c.jpg", IsActive: true, EndAt: &past},
	} {
		banner := b
		if err := repo.Create(&banner); err != nil {
			t.Fatalf("create banner failed: %v", err)
		}
	}
	off := models.Banner{Title: "off", Image: "d.jpg", IsActive: true}
	if err := repo.Create(&off); err != nil {
		t.Fatalf("create banner failed: %v", err)
	}
	if err := db.Model(&off).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable banner failed: %v", err)
	}

	banners, err := repo.ListValid(now, 0)
	if err != nil {
		t.Fatalf("list valid failed: %v", err)
	}
	if len(banners) != 1 || banners[0].Title != "live" {
		t.Fatalf("unexpected banners: %+v", banners)
	}
}
