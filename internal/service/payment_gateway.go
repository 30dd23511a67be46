package service

import (
	"context"
	"time"

	"github.com/tavan-shop/storefront/internal/payment/qpay"
)

// PaymentGateway 结账使用的 QPay 能力，*qpay.Client 实现该接口
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, input qpay.CreateInvoiceInput) (*qpay.Invoice, error)
	CheckInvoice(ctx context.Context, invoiceID string) (*qpay.CheckResult, error)
	CancelInvoice(ctx context.Context, invoiceID string) (bool, error)
}

// TaskScheduler 异步任务投递，*queue.Client 实现该接口
type TaskScheduler interface {
	Enabled() bool
	EnqueuePaymentTimeoutCancel(paymentID uint, delay time.Duration) error
	EnqueuePaymentWatch(paymentID uint) error
}
