package service

import (
	"context"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/cache"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// AuthService 管理员认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	now       func() time.Time
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo, now: time.Now}
}

// AdminLoginResult 登录结果
type AdminLoginResult struct {
	Admin     *models.Admin `json:"admin"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (*AdminLoginResult, error) {
	admin, err := s.adminRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if admin == nil || !verifyPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, expiresAt, err := issueToken(s.cfg.JWT, SessionClaims{
		Kind:         SessionAdmin,
		SubjectID:    admin.ID,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
	}, now)
	if err != nil {
		return nil, err
	}

	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, err
	}
	_ = cache.SetAdminState(context.Background(), cache.AdminState(admin))
	return &AdminLoginResult{Admin: admin, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate 解析 Token 并校验登录态
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*Session, error) {
	claims, err := parseToken(s.cfg.JWT, raw, SessionAdmin)
	if err != nil {
		return nil, err
	}
	state, hit, _ := cache.GetAdminState(ctx, claims.SubjectID)
	if !hit {
		admin, err := s.adminRepo.GetByID(claims.SubjectID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrInvalidToken
		}
		state = cache.AdminState(admin)
		_ = cache.SetAdminState(ctx, state)
	}
	session, err := sessionFromClaims(claims, state.TokenVersion, state.TokenInvalidBefore)
	if err != nil {
		return nil, err
	}
	session.Role = state.Role
	session.IsSuper = state.IsSuper
	return session, nil
}

// Logout 使该管理员所有已签发 Token 失效
func (s *AuthService) Logout(session *Session) error {
	if !session.IsAdmin() {
		return ErrInvalidToken
	}
	admin, err := s.adminRepo.GetByID(session.SubjectID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrNotFound
	}
	return s.revoke(admin)
}

// ChangePassword 修改管理员密码
func (s *AuthService) ChangePassword(session *Session, oldPassword, newPassword string) error {
	if !session.IsAdmin() {
		return ErrInvalidToken
	}
	admin, err := s.adminRepo.GetByID(session.SubjectID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrNotFound
	}
	if !verifyPassword(admin.PasswordHash, oldPassword) {
		return ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordMinLen, newPassword); err != nil {
		return err
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	admin.PasswordHash = hashed
	return s.revoke(admin)
}

func (s *AuthService) revoke(admin *models.Admin) error {
	now := s.now()
	admin.TokenVersion++
	admin.TokenInvalidBefore = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return err
	}
	_ = cache.SetAdminState(context.Background(), cache.AdminState(admin))
	return nil
}
