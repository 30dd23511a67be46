package worker

import (
	"context"
	"fmt"

	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

// PaymentTasks worker 依赖的支付单操作
type PaymentTasks interface {
	ExpirePayment(ctx context.Context, paymentID uint) error
	ResumeWatch(ctx context.Context, paymentID uint) error
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	payments PaymentTasks
}

// NewConsumer 创建消费者
func NewConsumer(payments PaymentTasks) *Consumer {
	return &Consumer{payments: payments}
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc(queue.TaskPaymentTimeoutCancel, c.handlePaymentTimeoutCancel)
	mux.HandleFunc(queue.TaskPaymentWatch, c.handlePaymentWatch)
}

func (c *Consumer) handlePaymentTimeoutCancel(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParsePaymentPayload(task)
	if err != nil {
		logger.Warnw("worker_payment_timeout_payload_invalid", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PaymentID == 0 || c.payments == nil {
		return nil
	}
	if err := c.payments.ExpirePayment(ctx, payload.PaymentID); err != nil {
		logger.Warnw("worker_payment_timeout_failed", "payment_id", payload.PaymentID, "error", err)
		return err
	}
	logger.Debugw("worker_payment_timeout_done", "payment_id", payload.PaymentID)
	return nil
}

func (c *Consumer) handlePaymentWatch(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParsePaymentPayload(task)
	if err != nil {
		logger.Warnw("worker_payment_watch_payload_invalid", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PaymentID == 0 || c.payments == nil {
		return nil
	}
	if err := c.payments.ResumeWatch(ctx, payload.PaymentID); err != nil {
		logger.Warnw("worker_payment_watch_failed", "payment_id", payload.PaymentID, "error", err)
		return err
	}
	return nil
}
