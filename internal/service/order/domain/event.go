// internal/service/order/domain/event.go
package domain

// PaymentSucceededEvent 是支付服务在收款成功后发出的异步通知。
// 字段名与支付服务的事件契约保持一致。
type PaymentSucceededEvent struct {
	OrderID         string `json:"orderId"`
	StripePaymentID string `json:"stripePaymentId"`
	ReceiptURL      string `json:"receiptUrl"`
}
