package admin

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	shared.RequestLog(c).Infow("admin_login_success", "admin_id", result.Admin.ID)
	response.Success(c, result)
}

// AdminLogout 注销当前管理员的全部 Token
func (h *Handler) AdminLogout(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	if err := h.AuthService.Logout(session); err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// ChangePassword 修改密码，成功后旧 Token 失效
func (h *Handler) ChangePassword(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AuthService.ChangePassword(session, req.OldPassword, req.NewPassword); err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// GetAdminMe 当前管理员会话
func (h *Handler) GetAdminMe(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{
		"id":       session.SubjectID,
		"role":     session.Role,
		"is_super": session.IsSuper,
	})
}
