package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not finish in time")
	}
}

func TestPollerFinalizesOnceWhenPaidOnFourthCheck(t *testing.T) {
	var checks, paid, failed int32
	p, err := NewPoller(PollerConfig{
		Interval:    5 * time.Millisecond,
		MaxAttempts: 10,
		Check: func(ctx context.Context) (CheckResult, error) {
			n := atomic.AddInt32(&checks, 1)
			return CheckResult{Paid: n >= 4}, nil
		},
		OnPaid: func(ctx context.Context) error {
			atomic.AddInt32(&paid, 1)
			return nil
		},
		OnFailed: func(ctx context.Context, outcome PollOutcome) {
			atomic.AddInt32(&failed, 1)
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	waitDone(t, p)
	p.Stop()

	assert.Equal(t, int32(4), atomic.LoadInt32(&checks))
	assert.Equal(t, int32(1), atomic.LoadInt32(&paid))
	assert.Equal(t, int32(0), atomic.LoadInt32(&failed))
	assert.Equal(t, PollPaid, p.Outcome().State)
	assert.Equal(t, 4, p.Outcome().Attempts)
}

func TestPollerExhaustsBudgetWithoutFinalizing(t *testing.T) {
	var paid int32
	var outcome PollOutcome
	p, err := NewPoller(PollerConfig{
		Interval:    2 * time.Millisecond,
		MaxAttempts: 3,
		Check: func(ctx context.Context) (CheckResult, error) {
			return CheckResult{}, errors.New("gateway timeout")
		},
		OnPaid: func(ctx context.Context) error {
			atomic.AddInt32(&paid, 1)
			return nil
		},
		OnFailed: func(ctx context.Context, o PollOutcome) {
			outcome = o
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	waitDone(t, p)

	assert.Equal(t, int32(0), atomic.LoadInt32(&paid))
	assert.Equal(t, PollFailed, outcome.State)
	assert.Equal(t, ReasonAttemptsExhausted, outcome.Reason)
	assert.EqualError(t, outcome.LastErr, "gateway timeout")
}

func TestPollerGatewayFailureIsTerminal(t *testing.T) {
	p, err := NewPoller(PollerConfig{
		Interval:    2 * time.Millisecond,
		MaxAttempts: 50,
		Check: func(ctx context.Context) (CheckResult, error) {
			return CheckResult{Failed: true, Status: "CANCELLED"}, nil
		},
		OnPaid: func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	waitDone(t, p)
	assert.Equal(t, ReasonGatewayFailed, p.Outcome().Reason)
	assert.Equal(t, 1, p.Outcome().Attempts)
}

func TestPollerStopPreventsCallbacks(t *testing.T) {
	var paid int32
	p, err := NewPoller(PollerConfig{
		Interval:    time.Hour,
		MaxAttempts: 1,
		Check: func(ctx context.Context) (CheckResult, error) {
			return CheckResult{Paid: true}, nil
		},
		OnPaid: func(ctx context.Context) error {
			atomic.AddInt32(&paid, 1)
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	p.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&paid))
	assert.Equal(t, ReasonStopped, p.Outcome().Reason)
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerStarted)
}

func TestNewPollerRejectsUnboundedConfig(t *testing.T) {
	_, err := NewPoller(PollerConfig{
		Check:  func(ctx context.Context) (CheckResult, error) { return CheckResult{}, nil },
		OnPaid: func(ctx context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, ErrPollerConfig)
}
