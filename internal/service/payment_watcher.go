package service

import (
	"context"
	"sync"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/metrics"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// PaymentWatcher 服务端轮询 QPay 支付状态，按支付单号登记轮询任务
type PaymentWatcher struct {
	cfg         config.CheckoutConfig
	gateway     PaymentGateway
	paymentRepo repository.PaymentRepository
	finalizer   *OrderFinalizer
	interval    time.Duration

	mu      sync.Mutex
	pollers map[string]*checkout.Poller
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewPaymentWatcher 创建轮询管理器
func NewPaymentWatcher(cfg config.CheckoutConfig, gateway PaymentGateway, paymentRepo repository.PaymentRepository, finalizer *OrderFinalizer) *PaymentWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &PaymentWatcher{
		cfg:         cfg,
		gateway:     gateway,
		paymentRepo: paymentRepo,
		finalizer:   finalizer,
		interval:    cfg.PollInterval(),
		pollers:     make(map[string]*checkout.Poller),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Watch 为已创建发票的支付单启动轮询；重复调用复用已有任务
func (w *PaymentWatcher) Watch(payment *models.Payment) (<-chan struct{}, error) {
	if w == nil || w.gateway == nil {
		return nil, ErrPaymentMethodInvalid
	}
	if payment == nil || payment.InvoiceID == "" || payment.Method != constants.PaymentMethodQPay {
		return nil, ErrPaymentMethodInvalid
	}
	if payment.Status != constants.PaymentStatusPending {
		return nil, ErrPaymentClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.pollers[payment.PaymentNo]; ok {
		return existing.Done(), nil
	}
	if w.ctx.Err() != nil {
		return nil, context.Canceled
	}

	paymentNo, invoiceID := payment.PaymentNo, payment.InvoiceID
	poller, err := checkout.NewPoller(checkout.PollerConfig{
		Interval:    w.interval,
		MaxAttempts: w.cfg.PollMaxAttempts,
		MaxDuration: w.cfg.PollMaxDuration(),
		Check: func(ctx context.Context) (checkout.CheckResult, error) {
			result, err := w.gateway.CheckInvoice(ctx, invoiceID)
			if err != nil {
				logger.Debugw("payment_watch_check_failed", "payment_no", paymentNo, "error", err)
				return checkout.CheckResult{}, err
			}
			return checkout.CheckResult{Paid: result.Paid, Failed: result.Failed(), Status: result.Status}, nil
		},
		OnPaid: func(ctx context.Context) error {
			_, err := w.finalizer.FinalizePaid(ctx, paymentNo)
			return err
		},
		OnFailed: func(ctx context.Context, outcome checkout.PollOutcome) {
			w.onFailed(paymentNo, outcome)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := poller.Start(w.ctx); err != nil {
		return nil, err
	}
	w.pollers[paymentNo] = poller
	metrics.ActivePollers.Inc()
	logger.Debugw("payment_watch_started", "payment_no", paymentNo)

	go func() {
		<-poller.Done()
		outcome := poller.Outcome()
		metrics.ActivePollers.Dec()
		metrics.PollOutcomesTotal.WithLabelValues(outcome.Reason).Inc()
		w.mu.Lock()
		if w.pollers[paymentNo] == poller {
			delete(w.pollers, paymentNo)
		}
		w.mu.Unlock()
		if outcome.State == checkout.PollPaid && outcome.LastErr != nil {
			logger.Errorw("payment_watch_finalize_failed", "payment_no", paymentNo, "error", outcome.LastErr)
		}
	}()
	return poller.Done(), nil
}

// Stop 停止该支付单的轮询并等待退出，其他路径落单前必须调用
func (w *PaymentWatcher) Stop(paymentNo string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	poller := w.pollers[paymentNo]
	w.mu.Unlock()
	if poller != nil {
		poller.Stop()
	}
}

// Watching 是否正在轮询
func (w *PaymentWatcher) Watching(paymentNo string) bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pollers[paymentNo]
	return ok
}

// Shutdown 停止全部轮询，之后不再接受新任务
func (w *PaymentWatcher) Shutdown() {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.cancel()
	pollers := make([]*checkout.Poller, 0, len(w.pollers))
	for _, p := range w.pollers {
		pollers = append(pollers, p)
	}
	w.mu.Unlock()
	for _, p := range pollers {
		p.Stop()
	}
}

// onFailed 网关明确失败时关闭支付单；预算耗尽只停止轮询，用户仍可手动查询
func (w *PaymentWatcher) onFailed(paymentNo string, outcome checkout.PollOutcome) {
	if outcome.Reason != checkout.ReasonGatewayFailed {
		logger.Warnw("payment_watch_budget_exhausted",
			"payment_no", paymentNo,
			"reason", outcome.Reason,
			"attempts", outcome.Attempts,
			"error", outcome.LastErr,
		)
		return
	}
	payment, err := w.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil || payment == nil {
		logger.Warnw("payment_watch_load_failed", "payment_no", paymentNo, "error", err)
		return
	}
	if _, err := w.paymentRepo.TransitionStatus(payment.ID,
		[]string{constants.PaymentStatusPending},
		constants.PaymentStatusFailed,
		map[string]interface{}{"failure_reason": "invoice closed by gateway"},
	); err != nil {
		logger.Warnw("payment_watch_mark_failed_error", "payment_no", paymentNo, "error", err)
		return
	}
	logger.Infow("payment_watch_gateway_failed", "payment_no", paymentNo, "attempts", outcome.Attempts)
}
