// internal/service/order/domain/errors.go
package domain

import "github.com/pkg/errors"

// 订单核心的错误分类。接口层通过 errors.Is 将其映射为对外的状态码，
// 调用方据此区分“校验失败 / 不存在 / 下游不可用 / 存储失败”。
var (
	// ErrOrderNotFound 请求的订单ID不存在
	ErrOrderNotFound = errors.New("order not found")

	// ErrProductsInvalid 一个或多个商品ID未通过目录校验，订单不会被创建
	ErrProductsInvalid = errors.New("one or more products were not recognized by the catalog")

	// ErrRemoteUnavailable 商品目录或支付服务不可达/超时，本地状态未被修改
	ErrRemoteUnavailable = errors.New("downstream service unavailable")

	// ErrPersistence 本地存储写入失败
	ErrPersistence = errors.New("order store write failed")

	// ErrOrderAlreadyPaid 订单已结算，重复的结算事件会命中此错误
	ErrOrderAlreadyPaid = errors.New("order already paid")

	// ErrInvalidStatus 状态字符串不在枚举内
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrNoItems 创建订单必须携带至少一个数量为正的行项目
	ErrNoItems = errors.New("order must contain at least one item")
)
