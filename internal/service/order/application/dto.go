// internal/service/order/application/dto.go
package application

import (
	"math"
	"time"

	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"
)

// CreateOrderItem 是客户端提交的一个行项目。
// 注意：客户端不允许提交价格，价格一律以目录校验结果为准。
type CreateOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest 是创建订单用例的输入。
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

// OrderItemView 是响应中的行项目，Name 仅用于展示，不落库。
type OrderItemView struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name,omitempty"`
}

// OrderView 是订单在响应中的形态。
type OrderView struct {
	ID             string          `json:"id"`
	TotalAmount    float64         `json:"totalAmount"`
	TotalItems     int             `json:"totalItems"`
	Status         domain.Status   `json:"status"`
	Paid           bool            `json:"paid"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	StripeChargeID string          `json:"stripeChargeId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Items          []OrderItemView `json:"items,omitempty"`
	ReceiptURL     string          `json:"receiptUrl,omitempty"`
}

// CreateOrderResponse 同时携带订单与支付会话。
// 支付会话创建失败时 PaymentSession 为 null，订单本身保持已创建。
type CreateOrderResponse struct {
	Order          OrderView            `json:"order"`
	PaymentSession *port.PaymentSession `json:"paymentSession"`
}

// PageRequest 是分页查询的输入；Status 为空串时不过滤。
type PageRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
}

// PageMeta 与数据页一起返回的分页元信息。
type PageMeta struct {
	Page       int   `json:"page"`
	Total      int64 `json:"total"`
	PerPage    int   `json:"perPage"`
	TotalPages int64 `json:"totalPages"`
}

// FindAllResponse 是分页查询的输出。
type FindAllResponse struct {
	Data []OrderView `json:"data"`
	Meta PageMeta    `json:"meta"`
}

// toOrderView 将领域订单映射为响应形态，names 提供行项目的展示名。
func toOrderView(o *domain.Order, names map[string]string) OrderView {
	view := OrderView{
		ID:             o.ID,
		TotalAmount:    o.TotalAmount,
		TotalItems:     o.TotalItems,
		Status:         o.Status,
		Paid:           o.Paid,
		PaidAt:         o.PaidAt,
		StripeChargeID: o.StripeChargeID,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, OrderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Name:      names[item.ProductID],
		})
	}
	if o.Receipt != nil {
		view.ReceiptURL = o.Receipt.ReceiptURL
	}
	return view
}

func buildMeta(page, limit int, total int64) PageMeta {
	return PageMeta{
		Page:       page,
		Total:      total,
		PerPage:    limit,
		TotalPages: int64(math.Ceil(float64(total) / float64(limit))),
	}
}
