package admin

import (
	"strconv"

	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminPayments 支付单列表，可按状态筛出 needs_support
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Method:   c.Query("method"),
		Status:   c.Query("status"),
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.UserID = uint(userID)
	}
	payments, total, err := h.CheckoutService.ListPayments(filter)
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.SuccessWithPage(c, payments, response.BuildPagination(page, pageSize, total))
}

// GetAdminPayment 支付单详情
func (h *Handler) GetAdminPayment(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	view, err := h.CheckoutService.GetPaymentAdmin(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}
