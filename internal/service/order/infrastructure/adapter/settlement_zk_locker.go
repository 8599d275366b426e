// internal/service/order/infrastructure/adapter/settlement_zk_locker.go
package adapter

import (
	"context"
	"fmt"

	"bazaar/internal/zookeeper"
)

// SettlementZkLocker 实现了 port.SettlementLocker。
// 每个订单一把 ZooKeeper 锁，使多副本部署下同一订单的结算写入串行化。
type SettlementZkLocker struct {
	conn *zookeeper.Conn
}

// NewSettlementZkLocker 创建一个新的结算互斥适配器。
func NewSettlementZkLocker(conn *zookeeper.Conn) *SettlementZkLocker {
	return &SettlementZkLocker{conn: conn}
}

// WithLock 在持有 order-<id> 锁的情况下执行 fn。
func (l *SettlementZkLocker) WithLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error {
	lock, err := zookeeper.NewDistributedLock(l.conn, "order-"+orderID)
	if err != nil {
		return fmt.Errorf("failed to prepare settlement lock: %w", err)
	}
	if err := lock.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire settlement lock: %w", err)
	}
	defer lock.Unlock()

	return fn(ctx)
}
