package public

import (
	"net/http"
	"strings"

	"github.com/tavan-shop/storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// QPayCallback QPay 付款通知。通知内容不可信，仅据此重新查询发票状态
func (h *Handler) QPayCallback(c *gin.Context) {
	paymentNo := strings.TrimSpace(c.Query("payment_no"))
	if paymentNo == "" {
		c.String(http.StatusBadRequest, "missing payment_no")
		return
	}
	log := shared.RequestLog(c).With("payment_no", paymentNo)
	view, err := h.CheckoutService.HandleCallback(c.Request.Context(), paymentNo)
	if err != nil {
		log.Warnw("qpay_callback_reconcile_failed", "error", err)
		// 网关只关心 200，失败时由轮询或用户手动查询兜底
		c.String(http.StatusOK, "SUCCESS")
		return
	}
	log.Infow("qpay_callback_reconciled", "status", view.Payment.Status)
	c.String(http.StatusOK, "SUCCESS")
}
