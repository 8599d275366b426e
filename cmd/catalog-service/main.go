// cmd/catalog-service/main.go
package main

import (
	"encoding/json"
	"net/http"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/service/order/domain/port"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "catalog-service"

// 本地联调用的目录存根：一张内存商品表。
// 真实环境中该服务由商品团队维护，这里只实现订单服务依赖的校验契约。
var products = map[string]port.Product{
	"prod-001": {ID: "prod-001", Name: "Mechanical Keyboard", Price: 89.90},
	"prod-002": {ID: "prod-002", Name: "Wireless Mouse", Price: 35.50},
	"prod-003": {ID: "prod-003", Name: "27-inch Monitor", Price: 249.00},
	"prod-004": {ID: "prod-004", Name: "USB-C Dock", Price: 129.99},
}

func main() {
	bootstrap.Init()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("POST /validate_products", handleValidateProducts)
		},
	})
}

// handleValidateProducts 返回请求ID中合法子集的权威记录。
// 与真实目录服务一致：未知ID不报错，直接从结果中缺席。
func handleValidateProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var valid []port.Product
	for _, id := range req.IDs {
		if p, ok := products[id]; ok {
			valid = append(valid, p)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"products": valid})
}
