// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderApplicationService 是订单核心的编排者：
// 组合存储、目录校验、支付会话与结算互斥，自己不做任何技术细节。
type OrderApplicationService struct {
	repo     domain.OrderRepository
	catalog  port.CatalogService
	payment  port.PaymentService
	locker   port.SettlementLocker
	tracer   trace.Tracer
	currency string
}

// NewOrderApplicationService 创建订单编排服务。
// locker 允许为 nil（单副本部署/测试环境），此时结算仅依赖存储层的行锁。
func NewOrderApplicationService(
	repo domain.OrderRepository,
	catalog port.CatalogService,
	payment port.PaymentService,
	locker port.SettlementLocker,
	tracer trace.Tracer,
	currency string,
) *OrderApplicationService {
	return &OrderApplicationService{
		repo:     repo,
		catalog:  catalog,
		payment:  payment,
		locker:   locker,
		tracer:   tracer,
		currency: currency,
	}
}

// CreateOrder 实现创建订单的编排序列：
// 目录校验 -> 以校验价格计算金额 -> 原子落库 -> 请求支付会话。
// 校验失败时不产生任何本地状态；支付会话失败不回滚订单，
// 调用方可以通过 CreatePaymentSession 对已存在的订单重试。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()
	timer := time.Now()

	if len(req.Items) == 0 {
		return nil, domain.ErrNoItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(domain.ErrNoItems, "non-positive quantity for product %s", item.ProductID)
		}
	}

	// 1. 提取去重后的商品ID集合
	ids := make([]string, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	span.SetAttributes(attribute.Int("order.distinct_products", len(ids)))

	// 2. 目录校验。失败则中止，订单不会被持久化。
	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product validation failed")
		return nil, err
	}
	prices := make(map[string]float64, len(products))
	names := make(map[string]string, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
		names[p.ID] = p.Name
	}
	var missing []string
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		err := errors.Wrapf(domain.ErrProductsInvalid, "unknown product ids %v", missing)
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog rejected products")
		return nil, err
	}

	// 3. 以校验后的价格构建行项目并计算总额
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     prices[item.ProductID],
		})
	}
	order, err := domain.NewOrder(items)
	if err != nil {
		return nil, err
	}

	// 4. 订单与行项目在一个事务中写入
	if err := s.repo.CreateWithItems(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	span.SetAttributes(attribute.String("order.id", order.ID))
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Float64("total_amount", order.TotalAmount).
		Int("total_items", order.TotalItems).
		Msg("order created")

	resp := &CreateOrderResponse{Order: toOrderView(order, names)}

	// 5. 请求支付会话。失败不回滚订单，响应中的会话为 null。
	session, err := s.payment.CreateSession(ctx, order.ID, s.currency, sessionItems(order.Items, names))
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", order.ID).
			Msg("payment session creation failed, order kept in PENDING state")
	} else {
		resp.PaymentSession = session
	}

	metrics.OrderCreateDuration.Observe(time.Since(timer).Seconds())
	return resp, nil
}

// FindAll 返回一页订单与分页元信息。超出范围的页返回空数据页。
func (s *OrderApplicationService) FindAll(ctx context.Context, req *PageRequest) (*FindAllResponse, error) {
	ctx, span := s.tracer.Start(ctx, "order.FindAll")
	defer span.End()

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}

	query := domain.PageQuery{Page: req.Page, Limit: req.Limit}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		query.Status = &status
	}

	orders, total, err := s.repo.FindPage(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp := &FindAllResponse{
		Data: make([]OrderView, 0, len(orders)),
		Meta: buildMeta(req.Page, req.Limit, total),
	}
	for i := range orders {
		resp.Data = append(resp.Data, toOrderView(&orders[i], nil))
	}
	return resp, nil
}

// FindOne 按ID查找订单并为行项目解析展示名。
// 名称永远不做本地缓存，每次都重新询问目录服务；
// 目录不可用时返回的错误与 ErrOrderNotFound 可区分。
func (s *OrderApplicationService) FindOne(ctx context.Context, id string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "order.FindOne")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	names, err := s.resolveNames(ctx, order.Items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve product names")
		return nil, err
	}

	view := toOrderView(order, names)
	return &view, nil
}

// ChangeOrderStatus 加载订单并更新状态。
// 目标状态与当前状态一致时是幂等的空操作；状态图不做合法性检查。
func (s *OrderApplicationService) ChangeOrderStatus(ctx context.Context, id string, status domain.Status) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "order.ChangeStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", id),
		attribute.String("order.target_status", string(status)),
	)

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if order.Status == status {
		span.AddEvent("Status unchanged, no-op.")
		view := toOrderView(order, nil)
		return &view, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().
		Str("order_id", id).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status changed")
	view := toOrderView(updated, nil)
	return &view, nil
}

// CreatePaymentSession 为一个已存在的订单重新请求支付会话。
// 这是创建流程中“订单已落库但会话请求失败”时的恢复路径。
func (s *OrderApplicationService) CreatePaymentSession(ctx context.Context, id string) (*port.PaymentSession, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreatePaymentSession")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	names, err := s.resolveNames(ctx, order.Items)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session, err := s.payment.CreateSession(ctx, order.ID, s.currency, sessionItems(order.Items, names))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment session creation failed")
		return nil, err
	}
	return session, nil
}

// SettleOrder 处理支付成功事件：在每订单互斥锁内完成一次性的结算写入。
// 重复事件命中 ErrOrderAlreadyPaid，不会产生第二张回执。
func (s *OrderApplicationService) SettleOrder(ctx context.Context, event *domain.PaymentSucceededEvent) error {
	ctx, span := s.tracer.Start(ctx, "order.Settle", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("payment.charge_id", event.StripePaymentID),
	)

	settle := func(ctx context.Context) error {
		_, err := s.repo.Settle(ctx, event.OrderID, event.StripePaymentID, event.ReceiptURL)
		return err
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, event.OrderID, settle)
	} else {
		err = settle(ctx)
	}

	switch {
	case err == nil:
		metrics.OrdersSettled.Inc()
		logger.Ctx(ctx).Info().Str("order_id", event.OrderID).Msg("order settled")
		return nil
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		metrics.SettlementReplays.Inc()
		logger.Ctx(ctx).Warn().Str("order_id", event.OrderID).Msg("duplicate settlement event ignored")
		return err
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		return err
	}
}

// resolveNames 通过目录服务为行项目重新解析展示名。
func (s *OrderApplicationService) resolveNames(ctx context.Context, items []domain.OrderItem) (map[string]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

func sessionItems(items []domain.OrderItem, names map[string]string) []port.PaymentSessionItem {
	out := make([]port.PaymentSessionItem, 0, len(items))
	for _, item := range items {
		out = append(out, port.PaymentSessionItem{
			Name:     names[item.ProductID],
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	return out
}
