package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

func TestProductCreateDefaultsAndPublicVisibility(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))

	if _, err := svc.Create(ProductInput{Name: "  ", Price: decimal.NewFromInt(1000)}); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("blank name should be rejected, got %v", err)
	}

	shirt, err := svc.Create(ProductInput{
		Name:  "Deel shirt",
		Price: decimal.NewFromInt(45000),
		Sizes: []string{" S ", "", "M"},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if shirt.Stock != -1 || !shirt.IsActive {
		t.Fatalf("unexpected defaults: stock=%d active=%v", shirt.Stock, shirt.IsActive)
	}
	if len(shirt.Sizes) != 2 || shirt.Sizes[0] != "S" {
		t.Fatalf("sizes not cleaned: %+v", shirt.Sizes)
	}

	inactive := false
	hidden, err := svc.Create(ProductInput{Name: "Draft", Price: decimal.NewFromInt(1), IsActive: &inactive})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.Create(ProductInput{Name: "Gift", Price: decimal.Zero, IsGiftOnly: true}); err != nil {
		t.Fatalf("create gift failed: %v", err)
	}

	products, total, err := svc.ListPublic("", 1, 20)
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].ID != shirt.ID {
		t.Fatalf("public list should only show active sellable products, got %d", total)
	}
	if _, err := svc.GetPublic(hidden.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be hidden, got %v", err)
	}
	if _, total, _ := svc.ListAdmin("", 1, 20); total != 3 {
		t.Fatalf("admin should see all products, got %d", total)
	}
}

func TestGiftSettingValidation(t *testing.T) {
	db := openServiceTestDB(t)
	productRepo := repository.NewProductRepository(db)
	products := NewProductService(productRepo)
	gifts := NewGiftSettingService(repository.NewGiftSettingRepository(db), productRepo)

	gift, err := products.Create(ProductInput{Name: "Gift", Price: decimal.Zero, IsGiftOnly: true})
	if err != nil {
		t.Fatalf("create gift failed: %v", err)
	}

	invalid := []GiftSettingInput{
		{ThresholdType: "weight", ThresholdValue: decimal.NewFromInt(1), GiftProductID: gift.ID},
		{ThresholdType: constants.GiftThresholdAmount, ThresholdValue: decimal.Zero, GiftProductID: gift.ID},
		{ThresholdType: constants.GiftThresholdCount, ThresholdValue: decimal.RequireFromString("2.5"), GiftProductID: gift.ID},
		{ThresholdType: constants.GiftThresholdCount, ThresholdValue: decimal.NewFromInt(3), GiftProductID: gift.ID + 99},
	}
	for i, input := range invalid {
		if _, err := gifts.Create(context.Background(), input); !errors.Is(err, ErrGiftSettingInvalid) {
			t.Fatalf("case %d: expected invalid, got %v", i, err)
		}
	}

	if _, err := gifts.Create(context.Background(), GiftSettingInput{
		ThresholdType:  constants.GiftThresholdCount,
		ThresholdValue: decimal.NewFromInt(3),
		GiftProductID:  gift.ID,
	}); err != nil {
		t.Fatalf("create gift setting failed: %v", err)
	}
	rule, err := gifts.Rule(context.Background())
	if err != nil || rule == nil {
		t.Fatalf("expected active rule, got %+v err=%v", rule, err)
	}
	if rule.ThresholdType != constants.GiftThresholdCount || rule.GiftProductID != gift.ID {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestAddressDefaultIsExclusive(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewAddressService(repository.NewAddressRepository(db))
	session := &Session{Kind: SessionUser, SubjectID: 3}
	input := AddressInput{City: "Ulaanbaatar", District: "Khan-Uul", Khoroo: "4", Address: "Zaisan 12", IsDefault: true}

	if _, err := svc.Create(session, AddressInput{City: "Ulaanbaatar"}); !errors.Is(err, ErrAddressInvalid) {
		t.Fatalf("incomplete address should be rejected, got %v", err)
	}
	first, err := svc.Create(session, input)
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	second, err := svc.Create(session, input)
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	list, err := svc.List(session)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	defaults := 0
	for _, address := range list {
		if address.IsDefault {
			defaults++
			if address.ID != second.ID {
				t.Fatalf("latest address should be default, got %d", address.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected one default, got %d", defaults)
	}
	if _, err := svc.Get(&Session{Kind: SessionUser, SubjectID: 4}, first.ID); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("other user should not see address, got %v", err)
	}
}
