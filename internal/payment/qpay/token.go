package qpay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RefreshMargin 令牌到期前提前刷新的时间
const RefreshMargin = 5 * time.Minute

// 超过该值的 expires_in 视为 Unix 时间戳（秒），否则视为有效秒数
const epochThreshold = 1_000_000_000

// TokenCache 访问令牌缓存值对象
type TokenCache struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid 令牌在 now 时刻是否仍可使用（距离到期超过 RefreshMargin）
func (c TokenCache) Valid(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-RefreshMargin))
}

// NeedsRefresh 纯函数：是否需要重新获取令牌
func NeedsRefresh(cache TokenCache, now time.Time) bool {
	return !cache.Valid(now)
}

// tokenExpiry 根据 expires_in 计算过期时间
func tokenExpiry(now time.Time, expiresIn int64) time.Time {
	switch {
	case expiresIn >= epochThreshold:
		return time.Unix(expiresIn, 0)
	case expiresIn > 0:
		return now.Add(time.Duration(expiresIn) * time.Second)
	default:
		// 未返回有效期时按 1 小时处理
		return now.Add(time.Hour)
	}
}

// accessToken 返回可用令牌，过期前 5 分钟内重新获取
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !NeedsRefresh(c.token, now) {
		return c.token.AccessToken, nil
	}
	cache, err := c.fetchToken(ctx, now)
	if err != nil {
		return "", err
	}
	c.token = cache
	return cache.AccessToken, nil
}

// invalidateToken 网关返回 401 时丢弃缓存
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = TokenCache{}
	c.mu.Unlock()
}

func (c *Client) fetchToken(ctx context.Context, now time.Time) (TokenCache, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/token", nil)
	if err != nil {
		return TokenCache{}, fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenCache{}, fmt.Errorf("%w: %w: %v", ErrAuthFailed, ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return TokenCache{}, fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenCache{}, fmt.Errorf("%w: %w", ErrAuthFailed, &APIError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return TokenCache{}, fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	token := strings.TrimSpace(readString(parsed, "access_token"))
	if token == "" {
		return TokenCache{}, fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	expiresIn := readDecimal(parsed, "expires_in").IntPart()
	return TokenCache{AccessToken: token, ExpiresAt: tokenExpiry(now, expiresIn)}, nil
}
