package cache

import (
	"context"
	"time"

	"github.com/tavan-shop/storefront/internal/metrics"
)

// 公共只读数据的缓存键
const (
	KeyPublicBanners      = "public:banners"
	KeyPublicPartners     = "public:partners"
	KeyPublicBankAccounts = "public:bank_accounts"
	KeyActiveGiftSetting  = "public:gift_setting"
)

// PublicTTL 公共列表缓存时长，后台修改时主动删除
const PublicTTL = 5 * time.Minute

// Remember 命中则直接返回，否则调用 load 并回填
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if hit, err := GetJSON(ctx, key, &cached); err == nil && hit {
		metrics.CacheLookupsTotal.WithLabelValues(key, "hit").Inc()
		return cached, nil
	}
	if Enabled() {
		metrics.CacheLookupsTotal.WithLabelValues(key, "miss").Inc()
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	_ = SetJSON(ctx, key, value, ttl)
	return value, nil
}
