// internal/pkg/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bazaar/internal/pkg/nacos"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client 是一个可追踪的、基于 Nacos 服务发现的 JSON HTTP 客户端。
// 超时完全由每次调用传入的 context 控制，自身不设置 Timeout。
type Client struct {
	tracer     trace.Tracer
	naming     *nacos.Client
	httpClient *http.Client
}

// HTTPError 表示下游服务返回了非 2xx 状态码。
// 调用方可以据此区分“业务拒绝”与“传输失败”。
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("downstream returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient 创建一个新的客户端实例。
func NewClient(tracer trace.Tracer, naming *nacos.Client) *Client {
	return &Client{
		tracer: tracer,
		naming: naming,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// PostJSON 向 serviceName 的一个健康实例 POST 一个 JSON 请求体，
// 并将响应体解码到 out（out 为 nil 时丢弃响应体）。
// 服务实例通过 Nacos 发现，链路上下文通过 HTTP Header 传播。
func (c *Client) PostJSON(ctx context.Context, serviceName, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "call-"+serviceName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ip, port, err := c.naming.DiscoverServiceInstance(serviceName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service discovery failed")
		return err
	}
	downstreamURL := fmt.Sprintf("http://%s:%d%s", ip, port, path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			span.RecordError(err)
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, downstreamURL, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	span.SetAttributes(
		attribute.String("http.url", downstreamURL),
		attribute.String("http.method", http.MethodPost),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
		span.RecordError(httpErr)
		span.SetStatus(codes.Error, httpErr.Error())
		return httpErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to decode response from %s%s: %w", serviceName, path, err)
	}
	return nil
}
