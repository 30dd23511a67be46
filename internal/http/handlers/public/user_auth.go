package public

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/i18n"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserRegister 注册并直接登录
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.UserAuthService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Locale:   i18n.ResolveLocale(c),
	})
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	shared.RequestLog(c).Infow("user_registered", "user_id", result.User.ID)
	response.Success(c, result)
}

// UserLogin 邮箱密码登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, result)
}

// UserLogout 注销当前顾客的全部 Token
func (h *Handler) UserLogout(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	if err := h.UserAuthService.Logout(session); err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// GetCurrentUser 当前顾客资料
func (h *Handler) GetCurrentUser(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.Me(session)
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, user)
}
