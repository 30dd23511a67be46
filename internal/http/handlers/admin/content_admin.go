package admin

import (
	"strconv"

	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/repository"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func respondCatalogError(c *gin.Context, err error) {
	shared.RespondMapped(c, err, shared.AdminCatalogErrorRules, response.CodeInternal, "error.internal")
}

func parseBoolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return nil, false
	}
	return &parsed, true
}

// GetAdminBanners Banner 列表
func (h *Handler) GetAdminBanners(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	isActive, ok := parseBoolQuery(c, "is_active")
	if !ok {
		return
	}
	banners, total, err := h.BannerService.ListAdmin(repository.BannerListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		IsActive: isActive,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.SuccessWithPage(c, banners, response.BuildPagination(page, pageSize, total))
}

// GetAdminBanner Banner 详情
func (h *Handler) GetAdminBanner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	banner, err := h.BannerService.GetByID(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, banner)
}

// CreateBanner 创建 Banner
func (h *Handler) CreateBanner(c *gin.Context) {
	var req service.BannerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	banner, err := h.BannerService.Create(c.Request.Context(), req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, banner)
}

// UpdateBanner 更新 Banner
func (h *Handler) UpdateBanner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.BannerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	banner, err := h.BannerService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, banner)
}

// DeleteBanner 删除 Banner
func (h *Handler) DeleteBanner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.BannerService.Delete(c.Request.Context(), id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetAdminPartners 合作伙伴列表
func (h *Handler) GetAdminPartners(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	partners, total, err := h.PartnerService.ListAdmin(page, pageSize)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.SuccessWithPage(c, partners, response.BuildPagination(page, pageSize, total))
}

// GetAdminPartner 合作伙伴详情
func (h *Handler) GetAdminPartner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	partner, err := h.PartnerService.GetByID(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, partner)
}

// CreatePartner 创建合作伙伴
func (h *Handler) CreatePartner(c *gin.Context) {
	var req service.PartnerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	partner, err := h.PartnerService.Create(c.Request.Context(), req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, partner)
}

// UpdatePartner 更新合作伙伴
func (h *Handler) UpdatePartner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.PartnerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	partner, err := h.PartnerService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, partner)
}

// DeletePartner 删除合作伙伴
func (h *Handler) DeletePartner(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.PartnerService.Delete(c.Request.Context(), id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetAdminBankAccounts 收款账户列表
func (h *Handler) GetAdminBankAccounts(c *gin.Context) {
	accounts, err := h.BankAccountService.ListAdmin()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, accounts)
}

// GetAdminBankAccount 收款账户详情
func (h *Handler) GetAdminBankAccount(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	account, err := h.BankAccountService.GetByID(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, account)
}

// CreateBankAccount 创建收款账户
func (h *Handler) CreateBankAccount(c *gin.Context) {
	var req service.BankAccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	account, err := h.BankAccountService.Create(c.Request.Context(), req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, account)
}

// UpdateBankAccount 更新收款账户
func (h *Handler) UpdateBankAccount(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.BankAccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	account, err := h.BankAccountService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, account)
}

// DeleteBankAccount 删除收款账户
func (h *Handler) DeleteBankAccount(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.BankAccountService.Delete(c.Request.Context(), id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetAdminGiftSettings 满赠设置列表
func (h *Handler) GetAdminGiftSettings(c *gin.Context) {
	settings, err := h.GiftSettingService.List()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, settings)
}

// GetAdminGiftSetting 满赠设置详情
func (h *Handler) GetAdminGiftSetting(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	setting, err := h.GiftSettingService.GetByID(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, setting)
}

// CreateGiftSetting 创建满赠设置
func (h *Handler) CreateGiftSetting(c *gin.Context) {
	var req service.GiftSettingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	setting, err := h.GiftSettingService.Create(c.Request.Context(), req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, setting)
}

// UpdateGiftSetting 更新满赠设置
func (h *Handler) UpdateGiftSetting(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.GiftSettingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	setting, err := h.GiftSettingService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, setting)
}

// DeleteGiftSetting 删除满赠设置
func (h *Handler) DeleteGiftSetting(c *gin.Context) {
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.GiftSettingService.Delete(c.Request.Context(), id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}
