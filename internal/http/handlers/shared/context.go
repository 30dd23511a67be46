package shared

import (
	"strconv"

	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionKey 中间件写入登录态使用的上下文键
const SessionKey = "session"

// CurrentSession 读取中间件写入的登录态，缺失时直接返回 401。
func CurrentSession(c *gin.Context) (*service.Session, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return nil, false
	}
	session, ok := value.(*service.Session)
	if !ok || session == nil {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return nil, false
	}
	return session, true
}

// ParamUint 读取路径参数中的正整数 ID。
func ParamUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
