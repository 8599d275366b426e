// internal/service/order/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/order/application"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// SettlementConsumerAdapter 是一个驱动适配器：
// 监听支付服务发出的 payment.succeeded 事件并驱动订单结算。
type SettlementConsumerAdapter struct {
	reader *kafka.Reader
	appSvc *application.OrderApplicationService
	guard  port.SettlementGuard
}

// NewSettlementConsumerAdapter 创建一个新的结算事件消费者。
// guard 允许为 nil，此时完全依赖存储层防重。
func NewSettlementConsumerAdapter(reader *kafka.Reader, appSvc *application.OrderApplicationService, guard port.SettlementGuard) *SettlementConsumerAdapter {
	return &SettlementConsumerAdapter{reader: reader, appSvc: appSvc, guard: guard}
}

// Run 持续消费结算事件，直到 ctx 被取消。
// 使用 FetchMessage + CommitMessages 以便控制提交时机。
func (a *SettlementConsumerAdapter) Run(ctx context.Context) error {
	logger.L().Info().Msgf("Settlement consumer started for topic '%s'.", a.reader.Config().Topic)
	defer a.reader.Close()

	for {
		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.L().Info().Msg("Settlement consumer shutting down.")
				return nil
			}
			logger.L().Error().Err(err).Msg("could not read settlement message, retrying")
			time.Sleep(time.Second) // 避免快速失败循环
			continue
		}

		// 可重试的失败不提交位点，原地退避重试；
		// 事件只有在结算有了确定结果之后才会被确认。
		for a.processMessage(ctx, msg) != nil {
			if ctx.Err() != nil {
				logger.L().Info().Msg("Settlement consumer shutting down.")
				return nil
			}
			time.Sleep(time.Second)
		}

		if err := a.reader.CommitMessages(ctx, msg); err != nil {
			logger.L().Error().Err(err).Msg("failed to commit settlement message")
		}
	}
}

// processMessage 反序列化事件并调用应用服务完成结算。
// 返回非 nil 表示瞬时失败，调用方应重试同一条消息；
// 终态结果（成功、重复、未知订单、坏消息）返回 nil。
func (a *SettlementConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) error {
	var event domain.PaymentSucceededEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 解析不了的消息重试也无济于事，生产环境应移入死信队列
		logger.L().Error().Err(err).Msg("failed to unmarshal payment event, message skipped")
		return nil
	}

	propagator := otel.GetTextMapPropagator()
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := propagator.Extract(parentCtx, &carrier)
	eventKey := event.OrderID + ":" + event.StripePaymentID

	// 原样重放的事件在进存储层之前就被拦下
	if a.guard != nil {
		seen, err := a.guard.Seen(ctx, eventKey)
		if err != nil {
			// 防重通道故障时继续走存储层，那里仍然保证不会出第二张回执
			logger.Ctx(ctx).Warn().Err(err).Msg("settlement guard unavailable, relying on store-level check")
		} else if seen {
			logger.Ctx(ctx).Warn().
				Str("order_id", event.OrderID).
				Msg("settlement event already seen, skipped")
			return nil
		}
	}

	err := a.appSvc.SettleOrder(ctx, &event)
	switch {
	case err == nil:
		a.markSettled(ctx, eventKey)
		return nil
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		// 已由应用层记录；补上标记，后续重放不再打到存储层
		a.markSettled(ctx, eventKey)
		return nil
	case errors.Is(err, domain.ErrOrderNotFound):
		logger.Ctx(ctx).Error().
			Str("order_id", event.OrderID).
			Msg("settlement event for unknown order, dropped")
		return nil
	default:
		// 不标记也不提交位点，事件保持可重投；持续失败的事件应送死信队列
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", event.OrderID).
			Msg("failed to settle order, will retry")
		return err
	}
}

// markSettled 在结算落库之后写防重标记。标记失败只降级为告警，
// 重放仍会被存储层的已支付检查拒绝。
func (a *SettlementConsumerAdapter) markSettled(ctx context.Context, eventKey string) {
	if a.guard == nil {
		return
	}
	if err := a.guard.MarkSettled(ctx, eventKey); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("failed to mark settlement event, relying on store-level check")
	}
}
