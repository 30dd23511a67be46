package shared

import (
	"errors"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/http/response"
	"github.com/tavan-shop/storefront/internal/i18n"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 业务错误到接口错误响应的映射。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondMapped 按规则表映射错误，未命中时记录原始错误并返回兜底响应。
// 表单校验失败与支付后落单失败有专门的响应结构，优先处理。
func RespondMapped(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		msg := i18n.T(i18n.ResolveLocale(c), "error.checkout_invalid")
		response.ErrorWithData(c, response.CodeBadRequest, msg, gin.H{"fields": verr.Fields})
		return
	}
	var postErr *service.PostPaymentError
	if errors.As(err, &postErr) {
		RequestLog(c).Errorw("payment_needs_support",
			"payment_no", postErr.PaymentNo,
			"error", postErr.Cause,
		)
		msg := i18n.T(i18n.ResolveLocale(c), "error.order_contact_support")
		response.ErrorWithData(c, response.CodePaymentNeedsSupport, msg, gin.H{"payment_no": postErr.PaymentNo})
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatRules 合并多组映射规则。
func ConcatRules(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// AuthErrorRules 登录态相关错误
var AuthErrorRules = []MappedError{
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrTokenRevoked, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeForbidden, Key: "error.user_disabled"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_too_short"},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_invalid"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// CouponErrorRules 优惠码校验错误
var CouponErrorRules = []MappedError{
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_invalid"},
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponInactive, Code: response.CodeBadRequest, Key: "error.coupon_inactive"},
	{Target: service.ErrCouponExpired, Code: response.CodeBadRequest, Key: "error.coupon_expired"},
	{Target: service.ErrCouponAlreadyUsed, Code: response.CodeConflict, Key: "error.coupon_already_used"},
}

// CartErrorRules 购物车与商品错误
var CartErrorRules = []MappedError{
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductUnavailable, Code: response.CodeBadRequest, Key: "error.product_unavailable"},
	{Target: service.ErrCartItemInvalid, Code: response.CodeBadRequest, Key: "error.cart_item_invalid"},
}

// CheckoutErrorRules 结账与支付错误
var CheckoutErrorRules = ConcatRules(CouponErrorRules, []MappedError{
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrAddressNotFound, Code: response.CodeNotFound, Key: "error.address_not_found"},
	{Target: service.ErrPaymentNotFound, Code: response.CodeNotFound, Key: "error.payment_not_found"},
	{Target: service.ErrPaymentClosed, Code: response.CodeConflict, Key: "error.payment_closed"},
	{Target: service.ErrPaymentNotPaid, Code: response.CodeBadRequest, Key: "error.payment_not_paid"},
	{Target: service.ErrPaymentGateway, Code: response.CodeGateway, Key: "error.payment_gateway"},
	{Target: checkout.ErrDraftInvalid, Code: response.CodeBadRequest, Key: "error.checkout_invalid"},
})

// OrderErrorRules 订单错误
var OrderErrorRules = []MappedError{
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
}

// AdminCatalogErrorRules 后台内容管理错误
var AdminCatalogErrorRules = []MappedError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInvalid, Code: response.CodeBadRequest, Key: "error.product_invalid"},
	{Target: service.ErrBannerInvalid, Code: response.CodeBadRequest, Key: "error.banner_invalid"},
	{Target: service.ErrPartnerInvalid, Code: response.CodeBadRequest, Key: "error.partner_invalid"},
	{Target: service.ErrBankAccountInvalid, Code: response.CodeBadRequest, Key: "error.bank_account_invalid"},
	{Target: service.ErrGiftSettingInvalid, Code: response.CodeBadRequest, Key: "error.gift_setting_invalid"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_invalid"},
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrAddressNotFound, Code: response.CodeNotFound, Key: "error.address_not_found"},
	{Target: service.ErrAddressInvalid, Code: response.CodeBadRequest, Key: "error.address_invalid"},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
}
