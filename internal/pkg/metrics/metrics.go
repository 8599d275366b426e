// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated 统计成功落库的订单数量。
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_orders_created_total",
		Help: "Number of orders successfully persisted.",
	})

	// OrdersSettled 统计通过支付事件完成结算的订单数量。
	OrdersSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_orders_settled_total",
		Help: "Number of orders marked as paid via settlement events.",
	})

	// SettlementReplays 统计被防重逻辑拦截的重复结算事件。
	SettlementReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_settlement_replays_total",
		Help: "Number of duplicate payment-succeeded events skipped.",
	})

	// OrderCreateDuration 观测创建订单全流程（校验+落库+支付会话）的耗时。
	OrderCreateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bazaar_order_create_duration_seconds",
		Help:    "End-to-end latency of the order creation flow.",
		Buckets: prometheus.DefBuckets,
	})
)
