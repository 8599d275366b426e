// internal/service/order/infrastructure/adapter/catalog_http_adapter.go
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
	catalogServiceName   = "catalog-service"
	validateProductsPath = "/validate_products"
)

// CatalogHTTPAdapter 实现了 port.CatalogService，
// 通过 HTTP 调用商品目录服务的 validate_products 接口。
type CatalogHTTPAdapter struct {
	client  *httpclient.Client
	timeout time.Duration
}

// NewCatalogHTTPAdapter 创建一个新的目录服务适配器。
func NewCatalogHTTPAdapter(client *httpclient.Client, timeout time.Duration) *CatalogHTTPAdapter {
	return &CatalogHTTPAdapter{client: client, timeout: timeout}
}

// ValidateProducts 把商品ID集合交给目录服务校验，返回合法子集的权威记录。
// 传输失败/超时映射为 ErrRemoteUnavailable；目录明确拒绝映射为 ErrProductsInvalid。
func (a *CatalogHTTPAdapter) ValidateProducts(ctx context.Context, ids []string) ([]port.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var resp struct {
		Products []port.Product `json:"products"`
	}

	if err := a.client.PostJSON(ctx, catalogServiceName, validateProductsPath, &req, &resp); err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return nil, errors.WithMessagef(domain.ErrProductsInvalid, "catalog rejected request: %s", httpErr.Body)
		}
		return nil, errors.WithMessagef(domain.ErrRemoteUnavailable, "catalog service: %v", err)
	}
	return resp.Products, nil
}
