package queue

import (
	"encoding/json"

	"github.com/tavan-shop/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentTimeoutCancel 支付单超时取消
	TaskPaymentTimeoutCancel = constants.TaskPaymentTimeoutCancel
	// TaskPaymentWatch 服务端轮询 QPay 支付状态
	TaskPaymentWatch = constants.TaskPaymentWatch
)

// PaymentPayload 支付单任务载荷
type PaymentPayload struct {
	PaymentID uint `json:"payment_id"`
}

// NewPaymentTimeoutCancelTask 创建超时取消任务
func NewPaymentTimeoutCancelTask(payload PaymentPayload) (*asynq.Task, error) {
	return newPaymentTask(TaskPaymentTimeoutCancel, payload)
}

// NewPaymentWatchTask 创建支付轮询任务
func NewPaymentWatchTask(payload PaymentPayload) (*asynq.Task, error) {
	return newPaymentTask(TaskPaymentWatch, payload)
}

func newPaymentTask(kind string, payload PaymentPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, body), nil
}

// ParsePaymentPayload 解析任务载荷
func ParsePaymentPayload(task *asynq.Task) (PaymentPayload, error) {
	var payload PaymentPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
