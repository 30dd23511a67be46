package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tavan-shop/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

type fakePaymentTasks struct {
	mu       sync.Mutex
	expired  []uint
	watched  []uint
	sweeps   int
	watchErr error
}

func (f *fakePaymentTasks) ExpirePayment(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, id)
	return nil
}

func (f *fakePaymentTasks) ResumeWatch(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, id)
	return f.watchErr
}

func (f *fakePaymentTasks) ExpireOverdue(_ context.Context, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0, nil
}

func (f *fakePaymentTasks) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestHandlePaymentTimeoutCancelDispatchesPaymentID(t *testing.T) {
	tasks := &fakePaymentTasks{}
	consumer := NewConsumer(tasks)
	task, err := queue.NewPaymentTimeoutCancelTask(queue.PaymentPayload{PaymentID: 42})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handlePaymentTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(tasks.expired) != 1 || tasks.expired[0] != 42 {
		t.Fatalf("expected payment 42 expired, got %v", tasks.expired)
	}
}

func TestHandlersSkipZeroPaymentID(t *testing.T) {
	tasks := &fakePaymentTasks{}
	consumer := NewConsumer(tasks)
	task, _ := queue.NewPaymentWatchTask(queue.PaymentPayload{})
	if err := consumer.handlePaymentWatch(context.Background(), task); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if err := consumer.handlePaymentTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if len(tasks.watched) != 0 || len(tasks.expired) != 0 {
		t.Fatalf("expected no dispatch, got watched=%v expired=%v", tasks.watched, tasks.expired)
	}
}

func TestHandlerInvalidPayloadSkipsRetry(t *testing.T) {
	consumer := NewConsumer(&fakePaymentTasks{})
	task := asynq.NewTask(queue.TaskPaymentWatch, []byte("{not json"))
	err := consumer.handlePaymentWatch(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandlePaymentWatchPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	consumer := NewConsumer(&fakePaymentTasks{watchErr: boom})
	task, _ := queue.NewPaymentWatchTask(queue.PaymentPayload{PaymentID: 7})
	if err := consumer.handlePaymentWatch(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunExpireSweepStopsOnCancel(t *testing.T) {
	tasks := &fakePaymentTasks{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunExpireSweep(ctx, tasks, 5*time.Millisecond)
		close(done)
	}()
	deadline := time.Now().Add(time.Second)
	for tasks.sweepCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweep loop did not exit")
	}
	if tasks.sweepCount() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", tasks.sweepCount())
	}
}

func TestNewServiceRejectsDisabledQueue(t *testing.T) {
	if _, err := NewService(nil, NewConsumer(nil)); err == nil {
		t.Fatalf("expected error for nil queue config")
	}
}
