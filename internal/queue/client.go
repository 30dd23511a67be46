package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

// Client 队列客户端封装，未启用时入队为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueuePaymentTimeoutCancel 延迟取消未支付的支付单
func (c *Client) EnqueuePaymentTimeoutCancel(paymentID uint, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if delay < 0 {
		delay = 0
	}
	task, err := NewPaymentTimeoutCancelTask(PaymentPayload{PaymentID: paymentID})
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(constants.QueueDefault),
		asynq.ProcessIn(delay),
		asynq.TaskID(fmt.Sprintf("timeout:%d", paymentID)),
	)
	return ignoreDuplicate(err)
}

// EnqueuePaymentWatch 让 worker 进程接管支付轮询
func (c *Client) EnqueuePaymentWatch(paymentID uint) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentWatchTask(PaymentPayload{PaymentID: paymentID})
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(constants.QueueCritical),
		asynq.MaxRetry(0),
		asynq.TaskID(fmt.Sprintf("watch:%d", paymentID)),
	)
	return ignoreDuplicate(err)
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{constants.QueueCritical: 6, constants.QueueDefault: 3}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
