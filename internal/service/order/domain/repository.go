// internal/service/order/domain/repository.go
package domain

import "context"

// PageQuery 描述一次分页查询：page/limit 从 1 起，Status 为 nil 时不过滤。
type PageQuery struct {
	Page   int
	Limit  int
	Status *Status
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现；订单服务通过组合持有它，而不是继承存储客户端。
type OrderRepository interface {
	// CreateWithItems 在一个事务里写入订单及其全部行项目，保证不出现
	// 只有父没有子（或相反）的半成品订单。
	CreateWithItems(ctx context.Context, order *Order) error

	// FindByID 按ID查找订单，包含行项目；不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindPage 返回一页订单（按创建顺序）与满足过滤条件的总数。
	// 超出数据范围的页返回空切片而不是错误。
	FindPage(ctx context.Context, query PageQuery) ([]Order, int64, error)

	// UpdateStatus 只更新状态字段，返回更新后的订单。
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)

	// Settle 在一个事务里完成结算写入：status=PAID、paid、paidAt、
	// 支付凭据与唯一一张回执。订单不存在返回 ErrOrderNotFound，
	// 已结算返回 ErrOrderAlreadyPaid。
	Settle(ctx context.Context, orderID, chargeID, receiptURL string) (*Order, error)
}
