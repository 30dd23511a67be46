package app

import (
	"context"
	"sync"
	"time"

	"github.com/tavan-shop/storefront/internal/worker"
)

// SweepService 进程内的过期支付单扫描
type SweepService struct {
	payments worker.PaymentTasks
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweepService 创建扫描服务
func NewSweepService(payments worker.PaymentTasks) *SweepService {
	return &SweepService{payments: payments, interval: time.Minute}
}

// Name 服务名称
func (s *SweepService) Name() string {
	return "expire_sweep"
}

// Start 阻塞运行直到 ctx 取消或 Stop 被调用
func (s *SweepService) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel, s.done = cancel, done
	s.mu.Unlock()
	defer close(done)

	worker.RunExpireSweep(runCtx, s.payments, s.interval)
	return nil
}

// Stop 停止扫描
func (s *SweepService) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
