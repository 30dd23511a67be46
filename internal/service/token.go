package service

import (
	"time"

	"github.com/tavan-shop/storefront/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims 登录 Token 声明
type SessionClaims struct {
	Kind         string `json:"kind"`
	SubjectID    uint   `json:"sub_id"`
	Role         string `json:"role,omitempty"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

func issueToken(cfg config.JWTConfig, claims SessionClaims, now time.Time) (string, time.Time, error) {
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func parseToken(cfg config.JWTConfig, raw, kind string) (*SessionClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Kind != kind || claims.SubjectID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// sessionFromClaims 校验 Token 版本与失效时间，通过后生成会话
func sessionFromClaims(claims *SessionClaims, tokenVersion uint64, invalidBefore int64) (*Session, error) {
	if claims.TokenVersion != tokenVersion {
		return nil, ErrTokenRevoked
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if invalidBefore > 0 && issuedAt.Unix() < invalidBefore {
		return nil, ErrTokenRevoked
	}
	session := &Session{
		Kind:         claims.Kind,
		SubjectID:    claims.SubjectID,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
		IssuedAt:     issuedAt,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
