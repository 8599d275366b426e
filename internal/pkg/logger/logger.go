// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是进程级别的根 logger。
// 它在 Init 中被构造一次，之后只读，不再有全局可变状态。
var base = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init 初始化根 logger，为所有日志加上 service 字段。
// 在每个服务的组装根（main）中调用一次。
func Init(serviceName string) {
	base = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个与当前链路关联的 logger。
// 如果 ctx 中存在有效的 Span，则自动附加 trace_id / span_id，
// 便于在日志系统中与 Jaeger 的链路数据互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}

// L 返回不带链路信息的根 logger，用于启动/关停等没有请求上下文的场景。
func L() *zerolog.Logger {
	return &base
}
