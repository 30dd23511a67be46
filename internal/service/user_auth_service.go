package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// UserAuthService 顾客认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewUserAuthService 创建顾客认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo, now: time.Now}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Locale   string
}

// UserLoginResult 登录结果
type UserLoginResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register 注册并直接登录
func (s *UserAuthService) Register(input RegisterInput) (*UserLoginResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(s.cfg.Security.PasswordMinLen, input.Password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	locale := strings.ToLower(strings.TrimSpace(input.Locale))
	if locale != "en" {
		locale = "mn"
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Locale:       locale,
		Status:       "active",
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return s.issue(user)
}

// Login 邮箱密码登录
func (s *UserAuthService) Login(email, password string) (*UserLoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || !verifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.Status != "" && user.Status != "active" {
		return nil, ErrUserDisabled
	}
	return s.issue(user)
}

func (s *UserAuthService) issue(user *models.User) (*UserLoginResult, error) {
	now := s.now()
	token, expiresAt, err := issueToken(s.cfg.UserJWT, SessionClaims{
		Kind:         SessionUser,
		SubjectID:    user.ID,
		TokenVersion: user.TokenVersion,
	}, now)
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserState(context.Background(), cache.UserState(user))
	return &UserLoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate 解析 Token 并校验登录态
func (s *UserAuthService) Authenticate(ctx context.Context, raw string) (*Session, error) {
	claims, err := parseToken(s.cfg.UserJWT, raw, SessionUser)
	if err != nil {
		return nil, err
	}
	state, hit, _ := cache.GetUserState(ctx, claims.SubjectID)
	if !hit {
		user, err := s.userRepo.GetByID(claims.SubjectID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrInvalidToken
		}
		state = cache.UserState(user)
		_ = cache.SetUserState(ctx, state)
	}
	if state.Disabled {
		return nil, ErrUserDisabled
	}
	return sessionFromClaims(claims, state.TokenVersion, state.TokenInvalidBefore)
}

// Logout 递增 Token 版本，已签发的 Token 全部失效
func (s *UserAuthService) Logout(session *Session) error {
	user, err := s.Me(session)
	if err != nil {
		return err
	}
	now := s.now()
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserState(context.Background(), cache.UserState(user))
	return nil
}

// Me 当前登录顾客
func (s *UserAuthService) Me(session *Session) (*models.User, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(session.SubjectID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrInvalidCredentials
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidCredentials
	}
	return trimmed, nil
}
