package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tavan-shop/storefront/internal/models"
)

const authStateTTL = 10 * time.Minute

// AuthState 登录态快照，中间件据此判定 Token 是否仍然有效
type AuthState struct {
	SubjectID          uint   `json:"subject_id"`
	Disabled           bool   `json:"disabled"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"` // Unix 秒，0 为未设置
	IsSuper            bool   `json:"is_super,omitempty"`
	Role               string `json:"role,omitempty"`
}

func userStateKey(id uint) string  { return fmt.Sprintf("auth:user:%d", id) }
func adminStateKey(id uint) string { return fmt.Sprintf("auth:admin:%d", id) }

// UserState 从顾客模型构建快照
func UserState(user *models.User) *AuthState {
	if user == nil {
		return nil
	}
	state := &AuthState{
		SubjectID:    user.ID,
		Disabled:     user.Status != "" && user.Status != "active",
		TokenVersion: user.TokenVersion,
	}
	if user.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = user.TokenInvalidBefore.Unix()
	}
	return state
}

// AdminState 从管理员模型构建快照
func AdminState(admin *models.Admin) *AuthState {
	if admin == nil {
		return nil
	}
	state := &AuthState{
		SubjectID:    admin.ID,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
		Role:         admin.Role,
	}
	if admin.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = admin.TokenInvalidBefore.Unix()
	}
	return state
}

// GetUserState 读取顾客登录态
func GetUserState(ctx context.Context, userID uint) (*AuthState, bool, error) {
	return getState(ctx, userStateKey(userID), userID)
}

// SetUserState 写入顾客登录态
func SetUserState(ctx context.Context, state *AuthState) error {
	if state == nil || state.SubjectID == 0 {
		return nil
	}
	return SetJSON(ctx, userStateKey(state.SubjectID), state, authStateTTL)
}

// GetAdminState 读取管理员登录态
func GetAdminState(ctx context.Context, adminID uint) (*AuthState, bool, error) {
	return getState(ctx, adminStateKey(adminID), adminID)
}

// SetAdminState 写入管理员登录态
func SetAdminState(ctx context.Context, state *AuthState) error {
	if state == nil || state.SubjectID == 0 {
		return nil
	}
	return SetJSON(ctx, adminStateKey(state.SubjectID), state, authStateTTL)
}

func getState(ctx context.Context, key string, id uint) (*AuthState, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var state AuthState
	hit, err := GetJSON(ctx, key, &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}
