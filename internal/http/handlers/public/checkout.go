package public

import (
	"strings"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponValidateRequest 优惠码校验请求；subtotal 可为数字或字符串
type CouponValidateRequest struct {
	Code     string      `json:"code" binding:"required"`
	Subtotal interface{} `json:"subtotal"`
}

// ValidateCoupon 校验优惠码并预估折扣
func (h *Handler) ValidateCoupon(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req CouponValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	subtotal, valid := checkout.CoerceAmount(req.Subtotal)
	if !valid && req.Subtotal != nil {
		shared.RequestLog(c).Warnw("coupon_validate_subtotal_coerced", "raw", req.Subtotal)
	}
	preview, err := h.CouponService.Preview(req.Code, session.UserID(), subtotal)
	if err != nil {
		shared.RespondMapped(c, err, shared.CouponErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, preview)
}

// QuoteCheckout 结账报价
func (h *Handler) QuoteCheckout(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req service.QuoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CheckoutService.Quote(c.Request.Context(), session, req)
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, result)
}

// CreatePayment 校验表单并创建支付单
func (h *Handler) CreatePayment(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req service.CreatePaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.CheckoutService.CreatePayment(c.Request.Context(), session, req)
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}

// GetPayment 支付单详情
func (h *Handler) GetPayment(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.GetPayment(session, paymentNoParam(c))
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}

// CheckPayment 顾客手动查询付款结果
func (h *Handler) CheckPayment(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.CheckPayment(c.Request.Context(), session, paymentNoParam(c))
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}

// ConfirmTransfer 顾客确认已完成银行转账
func (h *Handler) ConfirmTransfer(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.ConfirmTransfer(c.Request.Context(), session, paymentNoParam(c))
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}

// CancelPayment 取消未支付的支付单
func (h *Handler) CancelPayment(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.CancelPayment(c.Request.Context(), session, paymentNoParam(c))
	if err != nil {
		shared.RespondMapped(c, err, shared.CheckoutErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, view)
}

func paymentNoParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("payment_no"))
}
