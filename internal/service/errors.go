package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password too weak")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserDisabled       = errors.New("user disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")

	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrCartEmpty          = errors.New("cart empty")
	ErrCartItemInvalid    = errors.New("cart item invalid")

	ErrCouponInvalid     = errors.New("coupon invalid")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon inactive")
	ErrCouponExpired     = errors.New("coupon expired")
	ErrCouponAlreadyUsed = errors.New("coupon already used")

	ErrPaymentMethodInvalid = errors.New("payment method invalid")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentClosed        = errors.New("payment closed")
	ErrPaymentNotPaid       = errors.New("payment not paid")
	// ErrPaymentGateway 网关或网络失败，可由用户重试
	ErrPaymentGateway = errors.New("payment gateway unavailable")
	// ErrPaidOrderPersistFailed 网关已确认收款但订单写入失败
	ErrPaidOrderPersistFailed = errors.New("paid order persist failed")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status invalid")
	ErrAddressNotFound    = errors.New("address not found")
	ErrAddressInvalid     = errors.New("address invalid")

	ErrBannerInvalid      = errors.New("banner invalid")
	ErrPartnerInvalid     = errors.New("partner invalid")
	ErrBankAccountInvalid = errors.New("bank account invalid")
	ErrGiftSettingInvalid = errors.New("gift setting invalid")
	ErrProductInvalid     = errors.New("product invalid")
)

// PostPaymentError 付款后持久化失败，支付单已转入人工处理
type PostPaymentError struct {
	PaymentNo string
	Cause     error
}

func (e *PostPaymentError) Error() string {
	return fmt.Sprintf("payment %s paid but order not saved: %v", e.PaymentNo, e.Cause)
}

// Is 支持 errors.Is(err, ErrPaidOrderPersistFailed)
func (e *PostPaymentError) Is(target error) bool {
	return target == ErrPaidOrderPersistFailed
}

func (e *PostPaymentError) Unwrap() error {
	return e.Cause
}
