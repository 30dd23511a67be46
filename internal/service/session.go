package service

import "time"

// 会话主体类型
const (
	SessionUser  = "user"
	SessionAdmin = "admin"
)

// Session 已认证的调用方，由中间件解析后显式传入各服务
type Session struct {
	Kind         string
	SubjectID    uint
	Role         string
	IsSuper      bool
	TokenVersion uint64
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// IsUser 是否顾客会话
func (s *Session) IsUser() bool {
	return s != nil && s.Kind == SessionUser && s.SubjectID != 0
}

// IsAdmin 是否管理员会话
func (s *Session) IsAdmin() bool {
	return s != nil && s.Kind == SessionAdmin && s.SubjectID != 0
}

// UserID 顾客ID，非顾客会话返回 0
func (s *Session) UserID() uint {
	if !s.IsUser() {
		return 0
	}
	return s.SubjectID
}
