package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	expireSweepInterval = time.Minute
	expireSweepBatch    = 100
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.payments != nil {
		go RunExpireSweep(ctx, s.consumer.payments, expireSweepInterval)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// RunExpireSweep 定期扫描超时未支付的支付单，ctx 取消后退出
func RunExpireSweep(ctx context.Context, payments PaymentTasks, interval time.Duration) {
	if payments == nil {
		return
	}
	if interval <= 0 {
		interval = expireSweepInterval
	}
	runOnce := func() {
		expired, err := payments.ExpireOverdue(ctx, expireSweepBatch)
		if err != nil {
			logger.Warnw("worker_expire_sweep_failed", "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_expire_sweep_done", "expired", expired)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
