package public

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

var addressErrorRules = []shared.MappedError{
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrAddressNotFound, Code: response.CodeNotFound, Key: "error.address_not_found"},
	{Target: service.ErrAddressInvalid, Code: response.CodeBadRequest, Key: "error.address_invalid"},
}

// ListAddresses 收货地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	addresses, err := h.AddressService.List(session)
	if err != nil {
		shared.RespondMapped(c, err, addressErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	address, err := h.AddressService.Create(session, req)
	if err != nil {
		shared.RespondMapped(c, err, addressErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, address)
}

// UpdateAddress 修改收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	address, err := h.AddressService.Update(session, id, req)
	if err != nil {
		shared.RespondMapped(c, err, addressErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.AddressService.Delete(session, id); err != nil {
		shared.RespondMapped(c, err, addressErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}
