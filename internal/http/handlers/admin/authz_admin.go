package admin

import (
	"github.com/tavan-shop/storefront/internal/authz"
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetRolePolicies 查看角色策略，如 /authz/roles/operator/policies
func (h *Handler) GetRolePolicies(c *gin.Context) {
	role, err := authz.NormalizeRole(c.Param("role"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"role": role, "policies": policies})
}
