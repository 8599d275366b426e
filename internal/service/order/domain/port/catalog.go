// internal/service/order/domain/port/catalog.go
package port

import "context"

// Product 是商品目录返回的权威商品记录。
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CatalogService 是商品目录服务的出站端口。
// ValidateProducts 只返回合法子集；请求中的非法ID由调用方比对发现。
type CatalogService interface {
	ValidateProducts(ctx context.Context, ids []string) ([]Product, error)
}
