package public

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CartQuantityRequest 修改数量请求，0 表示移除
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	lines, err := h.CartService.List(session)
	if err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, lines)
}

// AddCartItem 加入购物车，相同商品与规格合并数量
func (h *Handler) AddCartItem(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	line, err := h.CartService.Add(session, service.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, line)
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.UpdateQuantity(session, id, req.Quantity); err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// RemoveCartItem 删除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.Remove(session, id); err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	session, ok := shared.CurrentSession(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(session); err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}
