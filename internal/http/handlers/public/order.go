package public

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListOrders 我的订单
func (h *Handler) ListOrders(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	orders, total, err := h.OrderService.ListMine(session, c.Query("status"), page, pageSize)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 我的订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetMine(session, id)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, order)
}
