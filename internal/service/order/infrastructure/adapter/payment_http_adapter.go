// internal/service/order/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"
	"time"

	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"

	"github.com/pkg/errors"
)

const (
	paymentServiceName       = "payment-service"
	createPaymentSessionPath = "/create_payment_session"
)

// PaymentHTTPAdapter 实现了 port.PaymentService，
// 向支付服务请求一个结账会话。调用本身没有本地副作用，允许重复请求。
type PaymentHTTPAdapter struct {
	client  *httpclient.Client
	timeout time.Duration
}

// NewPaymentHTTPAdapter 创建一个新的支付服务适配器。
func NewPaymentHTTPAdapter(client *httpclient.Client, timeout time.Duration) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client, timeout: timeout}
}

// CreateSession 请求一个支付会话描述符，失败统一映射为 ErrRemoteUnavailable。
func (a *PaymentHTTPAdapter) CreateSession(ctx context.Context, orderID, currency string, items []port.PaymentSessionItem) (*port.PaymentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := struct {
		OrderID  string                    `json:"orderId"`
		Currency string                    `json:"currency"`
		Items    []port.PaymentSessionItem `json:"items"`
	}{OrderID: orderID, Currency: currency, Items: items}

	var session port.PaymentSession
	if err := a.client.PostJSON(ctx, paymentServiceName, createPaymentSessionPath, &req, &session); err != nil {
		return nil, errors.WithMessagef(domain.ErrRemoteUnavailable, "payment service: %v", err)
	}
	return &session, nil
}
