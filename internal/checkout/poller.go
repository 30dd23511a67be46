package checkout

import (
	"context"
	"errors"
	"sync"
	"time"
)

// PollState 轮询状态，paid / failed 为终态
type PollState string

const (
	PollPending PollState = "pending"
	PollPaid    PollState = "paid"
	PollFailed  PollState = "failed"
)

// 轮询结束原因
const (
	ReasonPaid              = "paid"
	ReasonGatewayFailed     = "gateway_failed"
	ReasonAttemptsExhausted = "attempts_exhausted"
	ReasonDeadlineExceeded  = "deadline_exceeded"
	ReasonStopped           = "stopped"
)

var (
	// ErrPollerStarted 轮询已启动
	ErrPollerStarted = errors.New("poller already started")
	// ErrPollerConfig 轮询配置不完整
	ErrPollerConfig = errors.New("poller config invalid")
)

// CheckResult 单次查询结果
type CheckResult struct {
	Paid   bool
	Failed bool
	Status string
}

// PollOutcome 轮询最终结果
type PollOutcome struct {
	State    PollState
	Reason   string
	Attempts int
	LastErr  error
}

// PollerConfig 轮询配置
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxDuration time.Duration
	Check       func(ctx context.Context) (CheckResult, error)
	// OnPaid 支付成功时调用且仅调用一次，ctx 不随 Stop 取消
	OnPaid func(ctx context.Context) error
	// OnFailed 网关失败或预算耗尽时调用且仅调用一次；Stop 不触发
	OnFailed func(ctx context.Context, outcome PollOutcome)
}

// Poller 可取消的支付状态轮询任务
type Poller struct {
	cfg PollerConfig

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	outcome PollOutcome
	done    chan struct{}
}

// NewPoller 创建轮询任务
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Check == nil || cfg.OnPaid == nil {
		return nil, ErrPollerConfig
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 && cfg.MaxDuration <= 0 {
		return nil, ErrPollerConfig
	}
	return &Poller{
		cfg:     cfg,
		outcome: PollOutcome{State: PollPending},
		done:    make(chan struct{}),
	}, nil
}

// Start 启动后台轮询，只能启动一次
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrPollerStarted
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(runCtx)
	return nil
}

// Stop 取消轮询并等待退出；返回后不会再有回调执行
func (p *Poller) Stop() {
	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done 轮询结束信号
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Outcome 当前结果
func (p *Poller) Outcome() PollOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	startedAt := time.Now()
	attempts := 0
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			p.finish(PollOutcome{State: PollPending, Reason: ReasonStopped, Attempts: attempts, LastErr: lastErr})
			return
		case <-ticker.C:
		}

		attempts++
		result, err := p.cfg.Check(ctx)
		if ctx.Err() != nil {
			p.finish(PollOutcome{State: PollPending, Reason: ReasonStopped, Attempts: attempts, LastErr: lastErr})
			return
		}
		switch {
		case err != nil:
			lastErr = err
		case result.Paid:
			p.finish(PollOutcome{State: PollPaid, Reason: ReasonPaid, Attempts: attempts})
			if cbErr := p.cfg.OnPaid(context.WithoutCancel(ctx)); cbErr != nil {
				p.mu.Lock()
				p.outcome.LastErr = cbErr
				p.mu.Unlock()
			}
			return
		case result.Failed:
			p.fail(ctx, PollOutcome{State: PollFailed, Reason: ReasonGatewayFailed, Attempts: attempts})
			return
		}

		if p.cfg.MaxAttempts > 0 && attempts >= p.cfg.MaxAttempts {
			p.fail(ctx, PollOutcome{State: PollFailed, Reason: ReasonAttemptsExhausted, Attempts: attempts, LastErr: lastErr})
			return
		}
		if p.cfg.MaxDuration > 0 && time.Since(startedAt) >= p.cfg.MaxDuration {
			p.fail(ctx, PollOutcome{State: PollFailed, Reason: ReasonDeadlineExceeded, Attempts: attempts, LastErr: lastErr})
			return
		}
	}
}

func (p *Poller) fail(ctx context.Context, outcome PollOutcome) {
	p.finish(outcome)
	if p.cfg.OnFailed != nil {
		p.cfg.OnFailed(context.WithoutCancel(ctx), outcome)
	}
}

func (p *Poller) finish(outcome PollOutcome) {
	p.mu.Lock()
	p.outcome = outcome
	p.mu.Unlock()
}
