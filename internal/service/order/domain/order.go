// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "PENDING"   // 已创建，等待支付
	StatusPaid      Status = "PAID"      // 已支付，只能通过结算事件到达
	StatusDelivered Status = "DELIVERED" // 已送达
	StatusCancelled Status = "CANCELLED" // 已取消
)

// ParseStatus 校验外部传入的状态字符串是否属于合法枚举。
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
}

// Order 是订单聚合的根实体。
// TotalAmount / TotalItems 在创建时一次性算定，之后不再重算。
type Order struct {
	ID             string
	TotalAmount    float64
	TotalItems     int
	Status         Status
	Paid           bool
	PaidAt         *time.Time
	StripeChargeID string // 外部支付系统的不透明凭据ID，结算时写入
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items   []OrderItem
	Receipt *OrderReceipt
}

// OrderItem 是订单内的一个行项目。
// Price 是下单时从商品目录快照下来的价格，之后目录调价不影响历史订单。
type OrderItem struct {
	ProductID string
	Quantity  int
	Price     float64
}

// OrderReceipt 是结算时生成的支付回执，一个订单至多一张。
type OrderReceipt struct {
	ReceiptURL string
	CreatedAt  time.Time
}

// NewOrder 工厂函数：由已完成目录校验的行项目创建一个新订单。
// 金额只能来自校验后的价格，客户端提交的价格一律不可信。
func NewOrder(items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var totalAmount float64
	var totalItems int
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(ErrNoItems, "non-positive quantity for product %s", item.ProductID)
		}
		totalAmount += item.Price * float64(item.Quantity)
		totalItems += item.Quantity
	}

	now := time.Now()
	return &Order{
		ID:          uuid.New().String(),
		TotalAmount: totalAmount,
		TotalItems:  totalItems,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       items,
	}, nil
}

// Settle 将订单置为已支付终态：status/paid/paidAt/凭据/回执一起变更，且仅此一次。
// 已结算的订单再次调用返回 ErrOrderAlreadyPaid，回执不会产生第二张。
func (o *Order) Settle(chargeID, receiptURL string, at time.Time) error {
	if o.Paid || o.Status == StatusPaid {
		return ErrOrderAlreadyPaid
	}
	o.Status = StatusPaid
	o.Paid = true
	o.PaidAt = &at
	o.StripeChargeID = chargeID
	o.Receipt = &OrderReceipt{ReceiptURL: receiptURL, CreatedAt: at}
	o.UpdatedAt = at
	return nil
}
