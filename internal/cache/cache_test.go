package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/tavan-shop/storefront/internal/models"
)

func TestRememberWithoutRedisAlwaysLoads(t *testing.T) {
	UseClient(nil, "")
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a"}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), KeyPublicBanners, PublicTTL, load)
		if err != nil || len(got) != 1 {
			t.Fatalf("unexpected result: %v %v", got, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected loader to run each time without redis, got %d", calls)
	}
}

func TestRememberPropagatesLoadError(t *testing.T) {
	UseClient(nil, "")
	want := errors.New("boom")
	_, err := Remember(context.Background(), KeyPublicPartners, PublicTTL, func() (int, error) {
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, "shop")
	if got := BuildKey("public:banners"); got != "shop:public:banners" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildKey("  "); got != "shop" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}

func TestUserStateMarksDisabled(t *testing.T) {
	state := UserState(&models.User{ID: 3, Status: "disabled", TokenVersion: 2})
	if !state.Disabled || state.TokenVersion != 2 || state.SubjectID != 3 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if UserState(&models.User{ID: 4}).Disabled {
		t.Fatalf("empty status should count as active")
	}
}
