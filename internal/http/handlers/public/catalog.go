package public

import (
	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetPublicBanners 获取前台 Banner 列表
func (h *Handler) GetPublicBanners(c *gin.Context) {
	banners, err := h.BannerService.ListPublic(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, banners)
}

// GetPublicPartners 获取合作伙伴列表
func (h *Handler) GetPublicPartners(c *gin.Context) {
	partners, err := h.PartnerService.ListPublic(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, partners)
}

// GetPublicProducts 商品列表，支持 search 关键字
func (h *Handler) GetPublicProducts(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	products, total, err := h.ProductService.ListPublic(c.Query("search"), page, pageSize)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetPublicProduct 商品详情
func (h *Handler) GetPublicProduct(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetPublic(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.CartErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, product)
}

// GetActiveBankAccounts 银行转账收款账户
func (h *Handler) GetActiveBankAccounts(c *gin.Context) {
	accounts, err := h.BankAccountService.ListActive(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, accounts)
}

// GetActiveGiftSetting 当前生效的满赠活动，没有时返回 null
func (h *Handler) GetActiveGiftSetting(c *gin.Context) {
	setting, err := h.GiftSettingService.Active(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, setting)
}
