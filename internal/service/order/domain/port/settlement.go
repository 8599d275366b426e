// internal/service/order/domain/port/settlement.go
package port

import "context"

// SettlementGuard 在事件入口处识别重复投递的结算通知。
// Seen 只做查询；MarkSettled 必须在结算确实落库之后才调用，
// 否则一次瞬时的存储失败会让后续重投被永久拦截。
type SettlementGuard interface {
	Seen(ctx context.Context, eventKey string) (bool, error)
	MarkSettled(ctx context.Context, eventKey string) error
}

// SettlementLocker 为单个订单的结算写入提供跨副本的互斥。
// WithLock 在持有锁的情况下执行 fn。
type SettlementLocker interface {
	WithLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error
}
