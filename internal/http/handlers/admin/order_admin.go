package admin

import (
	"strconv"
	"time"

	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/gin-gonic/gin"
)

// OrderStatusRequest 订单状态变更请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAdminOrders 订单列表
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.UserID = uint(userID)
	}
	var ok bool
	if filter.CreatedFrom, ok = parseTimeQuery(c, "created_from"); !ok {
		return
	}
	if filter.CreatedTo, ok = parseTimeQuery(c, "created_to"); !ok {
		return
	}
	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetAdminOrder 订单详情
func (h *Handler) GetAdminOrder(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetAdmin(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 推进订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.UpdateStatus(session, id, req.Status)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules, response.CodeInternal, "error.internal")
		return
	}
	shared.RequestLog(c).Infow("admin_order_status_updated",
		"admin_id", session.SubjectID,
		"order_id", order.ID,
		"status", order.Status,
	)
	response.Success(c, order)
}

// parseTimeQuery 解析 RFC3339 或 2006-01-02 格式的时间参数
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, true
		}
	}
	shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
	return nil, false
}
