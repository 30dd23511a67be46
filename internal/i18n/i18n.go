package i18n

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleMN      = "mn"
	LocaleEN      = "en"
	DefaultLocale = LocaleMN
)

var messages = map[string]map[string]string{
	LocaleMN: {
		"error.bad_request":            "Хүсэлт буруу байна",
		"error.unauthorized":           "Нэвтэрнэ үү",
		"error.forbidden":              "Хандах эрхгүй байна",
		"error.not_found":              "Олдсонгүй",
		"error.too_many_requests":      "Хэт олон оролдлого. Түр хүлээнэ үү",
		"error.internal":               "Системийн алдаа гарлаа",
		"error.login_invalid":          "Имэйл эсвэл нууц үг буруу байна",
		"error.email_exists":           "Энэ имэйл бүртгэлтэй байна",
		"error.password_too_short":     "Нууц үг хэт богино байна",
		"error.user_disabled":          "Хэрэглэгч идэвхгүй байна",
		"error.cart_empty":             "Сагс хоосон байна",
		"error.cart_item_invalid":      "Сагсны бараа буруу байна",
		"error.product_not_found":      "Бараа олдсонгүй",
		"error.product_unavailable":    "Бараа худалдаанд байхгүй байна",
		"error.coupon_invalid":         "Купон код буруу байна",
		"error.coupon_not_found":       "Купон олдсонгүй",
		"error.coupon_expired":         "Купоны хугацаа дууссан байна",
		"error.coupon_inactive":        "Купон идэвхгүй байна",
		"error.coupon_already_used":    "Та энэ купоныг ашигласан байна",
		"error.checkout_invalid":       "Захиалгын мэдээллээ шалгана уу",
		"error.payment_method_invalid": "Төлбөрийн хэлбэр буруу байна",
		"error.payment_not_found":      "Төлбөр олдсонгүй",
		"error.payment_closed":         "Төлбөр хаагдсан байна",
		"error.payment_gateway":        "Төлбөрийн системтэй холбогдож чадсангүй. Дахин оролдоно уу",
		"error.payment_not_paid":       "Төлбөр хараахан төлөгдөөгүй байна",
		"error.order_contact_support":  "Төлбөр төлөгдсөн боловч захиалга бүртгэгдсэнгүй. Харилцагчийн төвд хандана уу",
		"error.order_not_found":        "Захиалга олдсонгүй",
		"error.order_status_invalid":   "Захиалгын төлөв буруу байна",
		"error.address_not_found":      "Хаяг олдсонгүй",
		"error.address_invalid":        "Хаягийн мэдээлэл дутуу байна",
		"error.product_invalid":        "Барааны мэдээлэл буруу байна",
		"error.password_invalid":       "Хуучин нууц үг буруу байна",
		"error.gift_setting_invalid":   "Бэлгийн тохиргоо буруу байна",
		"error.banner_invalid":         "Баннерын мэдээлэл буруу байна",
		"error.partner_invalid":        "Хамтрагчийн мэдээлэл буруу байна",
		"error.bank_account_invalid":   "Дансны мэдээлэл буруу байна",
	},
	LocaleEN: {
		"error.bad_request":            "Bad request",
		"error.unauthorized":           "Please sign in",
		"error.forbidden":              "Forbidden",
		"error.not_found":              "Not found",
		"error.too_many_requests":      "Too many attempts, please wait",
		"error.internal":               "Internal error",
		"error.login_invalid":          "Invalid email or password",
		"error.email_exists":           "Email already registered",
		"error.password_too_short":     "Password is too short",
		"error.user_disabled":          "Account disabled",
		"error.cart_empty":             "Cart is empty",
		"error.cart_item_invalid":      "Invalid cart item",
		"error.product_not_found":      "Product not found",
		"error.product_unavailable":    "Product unavailable",
		"error.coupon_invalid":         "Invalid coupon code",
		"error.coupon_not_found":       "Coupon not found",
		"error.coupon_expired":         "Coupon expired",
		"error.coupon_inactive":        "Coupon inactive",
		"error.coupon_already_used":    "You have already used this coupon",
		"error.checkout_invalid":       "Please check your order details",
		"error.payment_method_invalid": "Invalid payment method",
		"error.payment_not_found":      "Payment not found",
		"error.payment_closed":         "Payment is closed",
		"error.payment_gateway":        "Payment provider unavailable, please retry",
		"error.payment_not_paid":       "Payment not received yet",
		"error.order_contact_support":  "Payment received but the order could not be saved. Please contact support",
		"error.order_not_found":        "Order not found",
		"error.order_status_invalid":   "Invalid order status",
		"error.address_not_found":      "Address not found",
		"error.address_invalid":        "Address is incomplete",
		"error.product_invalid":        "Invalid product",
		"error.password_invalid":       "Current password is incorrect",
		"error.gift_setting_invalid":   "Invalid gift setting",
		"error.banner_invalid":         "Invalid banner",
		"error.partner_invalid":        "Invalid partner",
		"error.bank_account_invalid":   "Invalid bank account",
	},
}

// ResolveLocale 从 X-Locale 或 Accept-Language 解析语言，默认蒙古语
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	for _, raw := range []string{c.GetHeader("X-Locale"), c.GetHeader("Accept-Language")} {
		if locale := normalize(raw); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

func normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	// Accept-Language: en-US,en;q=0.9
	first := strings.SplitN(raw, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	switch {
	case strings.HasPrefix(first, LocaleMN):
		return LocaleMN
	case strings.HasPrefix(first, LocaleEN):
		return LocaleEN
	default:
		return ""
	}
}

// T 翻译消息键，缺失时回退默认语言，再回退键本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}
