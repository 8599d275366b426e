// internal/service/order/infrastructure/adapter/settlement_guard_redis.go
package adapter

import (
	"context"
	"fmt"
	"time"

	"bazaar/internal/pkg/redis"
)

const settlementSeenTTL = 72 * time.Hour

// SettlementGuardRedis 实现了 port.SettlementGuard。
// 记录已经结算成功的事件，在进存储层之前就拦掉原样重放；
// 它只是快速通道，最终的防重仍由存储层的已支付检查和回执唯一索引保证。
// 标记只在结算落库之后写入，结算失败的事件保持可重投。
type SettlementGuardRedis struct {
	redisClient *redis.Client
}

// NewSettlementGuardRedis 创建一个新的结算防重适配器。
func NewSettlementGuardRedis(redisClient *redis.Client) *SettlementGuardRedis {
	return &SettlementGuardRedis{redisClient: redisClient}
}

// Seen 报告 eventKey 是否已经被标记为结算完成。
func (g *SettlementGuardRedis) Seen(ctx context.Context, eventKey string) (bool, error) {
	n, err := g.redisClient.GetClient().Exists(ctx, guardKey(eventKey)).Result()
	if err != nil {
		return false, fmt.Errorf("settlement guard failed to check event: %w", err)
	}
	return n > 0, nil
}

// MarkSettled 把 eventKey 标记为结算完成。
func (g *SettlementGuardRedis) MarkSettled(ctx context.Context, eventKey string) error {
	if err := g.redisClient.GetClient().Set(ctx, guardKey(eventKey), 1, settlementSeenTTL).Err(); err != nil {
		return fmt.Errorf("settlement guard failed to mark event: %w", err)
	}
	return nil
}

func guardKey(eventKey string) string {
	return fmt.Sprintf("settlement:seen:{%s}", eventKey)
}
