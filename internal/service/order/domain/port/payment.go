// internal/service/order/domain/port/payment.go
package port

import "context"

// PaymentSessionItem 是提交给支付服务的行项目，名称已由目录解析。
type PaymentSessionItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaymentSession 是支付服务返回的会话描述符，对本服务完全不透明。
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentService 是支付会话服务的出站端口。
// 创建会话没有本地副作用，同一订单允许重复请求；幂等性由支付服务负责。
type PaymentService interface {
	CreateSession(ctx context.Context, orderID, currency string, items []PaymentSessionItem) (*PaymentSession, error)
}
