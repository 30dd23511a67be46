package admin

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/repository"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminCoupons 优惠码列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	isActive, ok := parseBoolQuery(c, "is_active")
	if !ok {
		return
	}
	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
		IsActive: isActive,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetAdminCoupon 优惠码详情
func (h *Handler) GetAdminCoupon(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponAdminService.Get(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, coupon)
}

// CreateCoupon 创建优惠码，code 为空时自动生成
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req service.CouponInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	coupon, err := h.CouponAdminService.Create(req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠码
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.CouponInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	coupon, err := h.CouponAdminService.Update(id, req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, coupon)
}

// DeactivateCoupon 停用优惠码；已有使用记录，不提供删除
func (h *Handler) DeactivateCoupon(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.CouponAdminService.Deactivate(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetCouponUsages 优惠码使用记录
func (h *Handler) GetCouponUsages(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	usages, err := h.CouponAdminService.Usages(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, usages)
}
