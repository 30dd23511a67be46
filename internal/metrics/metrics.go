package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequestsTotal 支付网关调用次数
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Payment gateway calls by operation and outcome",
	}, []string{"gateway", "operation", "outcome"})

	// GatewayDuration 支付网关调用耗时
	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Payment gateway call latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"gateway", "operation"})

	// PollOutcomesTotal 支付轮询结束原因
	PollOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "poll_outcomes_total",
		Help:      "Payment status poll results",
	}, []string{"reason"})

	// ActivePollers 进行中的轮询任务
	ActivePollers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "active_pollers",
		Help:      "Payment watchers currently running",
	})

	// FinalizationsTotal 下单结果
	FinalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "finalizations_total",
		Help:      "Order finalization results",
	}, []string{"method", "result"})

	// CacheLookupsTotal 缓存命中情况
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Public content cache lookups",
	}, []string{"key", "result"})

	// RequestDuration HTTP 请求耗时
	RequestDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  "storefront",
		Subsystem:  "http",
		Name:       "request_duration_seconds",
		Help:       "HTTP request latency by route and status",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"route", "status"})
)

// ObserveGateway 记录一次网关调用
func ObserveGateway(gateway, operation string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	GatewayRequestsTotal.WithLabelValues(gateway, operation, outcome).Inc()
	GatewayDuration.WithLabelValues(gateway, operation).Observe(time.Since(started).Seconds())
}

// ObserveRequest 记录一次 HTTP 请求
func ObserveRequest(route string, d time.Duration, status int) {
	if route == "" {
		route = "unmatched"
	}
	RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
