package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// ---- 端口与仓储的内存替身 ----

type fakeRepo struct {
	orders      []*domain.Order
	createErr   error
	updateCalls int
}

func (f *fakeRepo) find(id string) *domain.Order {
	for _, o := range f.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (f *fakeRepo) CreateWithItems(_ context.Context, order *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *order
	f.orders = append(f.orders, &cp)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o := f.find(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) FindPage(_ context.Context, query domain.PageQuery) ([]domain.Order, int64, error) {
	var matching []*domain.Order
	for _, o := range f.orders {
		if query.Status == nil || o.Status == *query.Status {
			matching = append(matching, o)
		}
	}
	total := int64(len(matching))

	offset := (query.Page - 1) * query.Limit
	if offset >= len(matching) {
		return nil, total, nil
	}
	end := offset + query.Limit
	if end > len(matching) {
		end = len(matching)
	}
	page := make([]domain.Order, 0, end-offset)
	for _, o := range matching[offset:end] {
		page = append(page, *o)
	}
	return page, total, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.Status) (*domain.Order, error) {
	f.updateCalls++
	o := f.find(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) Settle(_ context.Context, orderID, chargeID, receiptURL string) (*domain.Order, error) {
	o := f.find(orderID)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if err := o.Settle(chargeID, receiptURL, time.Now()); err != nil {
		return nil, err
	}
	cp := *o
	return &cp, nil
}

type fakeCatalog struct {
	products map[string]port.Product
	err      error
	calls    int
}

func (f *fakeCatalog) ValidateProducts(_ context.Context, ids []string) ([]port.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var valid []port.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

type fakePayment struct {
	session *port.PaymentSession
	err     error
	calls   int
	lastReq []port.PaymentSessionItem
}

func (f *fakePayment) CreateSession(_ context.Context, _, _ string, items []port.PaymentSessionItem) (*port.PaymentSession, error) {
	f.calls++
	f.lastReq = items
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeLocker struct {
	locked []string
}

func (f *fakeLocker) WithLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error {
	f.locked = append(f.locked, orderID)
	return fn(ctx)
}

func newTestService(repo *fakeRepo, catalog *fakeCatalog, payment *fakePayment, locker port.SettlementLocker) *OrderApplicationService {
	return NewOrderApplicationService(repo, catalog, payment, locker, otel.Tracer("test"), "usd")
}

func defaultCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[string]port.Product{
		"P1": {ID: "P1", Name: "Keyboard", Price: 10},
		"P2": {ID: "P2", Name: "Mouse", Price: 5},
	}}
}

// ---- CreateOrder ----

func TestCreateOrder_Success(t *testing.T) {
	repo := &fakeRepo{}
	payment := &fakePayment{session: &port.PaymentSession{ID: "cs_1", URL: "https://pay/cs_1"}}
	svc := newTestService(repo, defaultCatalog(), payment, nil)

	resp, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{Items: []CreateOrderItem{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	}})
	require.NoError(t, err)

	assert.Equal(t, 25.0, resp.Order.TotalAmount)
	assert.Equal(t, 3, resp.Order.TotalItems)
	assert.Equal(t, domain.StatusPending, resp.Order.Status)
	assert.False(t, resp.Order.Paid)

	// 展示名来自校验响应，且不落库
	require.Len(t, resp.Order.Items, 2)
	assert.Equal(t, "Keyboard", resp.Order.Items[0].Name)
	assert.Equal(t, 10.0, resp.Order.Items[0].Price)
	assert.Equal(t, "Mouse", resp.Order.Items[1].Name)

	require.NotNil(t, resp.PaymentSession)
	assert.Equal(t, "cs_1", resp.PaymentSession.ID)
	require.Len(t, payment.lastReq, 2)
	assert.Equal(t, "Keyboard", payment.lastReq[0].Name)

	require.Len(t, repo.orders, 1)
	assert.Equal(t, resp.Order.ID, repo.orders[0].ID)
}

func TestCreateOrder_UnknownProductPersistsNothing(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, nil)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{Items: []CreateOrderItem{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "GHOST", Quantity: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrProductsInvalid)
	assert.Contains(t, err.Error(), "GHOST")
	assert.Empty(t, repo.orders)
}

func TestCreateOrder_CatalogUnavailablePersistsNothing(t *testing.T) {
	repo := &fakeRepo{}
	catalog := &fakeCatalog{err: domain.ErrRemoteUnavailable}
	payment := &fakePayment{}
	svc := newTestService(repo, catalog, payment, nil)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{Items: []CreateOrderItem{
		{ProductID: "P1", Quantity: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Empty(t, repo.orders)
	assert.Zero(t, payment.calls)
}

func TestCreateOrder_InvalidItems(t *testing.T) {
	svc := newTestService(&fakeRepo{}, defaultCatalog(), &fakePayment{}, nil)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrNoItems)

	_, err = svc.CreateOrder(context.Background(), &CreateOrderRequest{Items: []CreateOrderItem{
		{ProductID: "P1", Quantity: 0},
	}})
	assert.ErrorIs(t, err, domain.ErrNoItems)
}

func TestCreateOrder_SessionFailureKeepsOrder(t *testing.T) {
	repo := &fakeRepo{}
	payment := &fakePayment{err: domain.ErrRemoteUnavailable}
	svc := newTestService(repo, defaultCatalog(), payment, nil)

	resp, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{Items: []CreateOrderItem{
		{ProductID: "P1", Quantity: 1},
	}})
	require.NoError(t, err)

	// 会话失败不回滚订单，响应中的会话为 null
	assert.Nil(t, resp.PaymentSession)
	require.Len(t, repo.orders, 1)
	assert.Equal(t, domain.StatusPending, repo.orders[0].Status)
}

// ---- FindAll ----

func seedOrders(t *testing.T, repo *fakeRepo, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		order, err := domain.NewOrder([]domain.OrderItem{
			{ProductID: fmt.Sprintf("P%d", i), Quantity: 1, Price: float64(i + 1)},
		})
		require.NoError(t, err)
		require.NoError(t, repo.CreateWithItems(context.Background(), order))
		ids = append(ids, order.ID)
	}
	return ids
}

func TestFindAll_PaginationAndMeta(t *testing.T) {
	repo := &fakeRepo{}
	ids := seedOrders(t, repo, 25)
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, nil)

	resp, err := svc.FindAll(context.Background(), &PageRequest{Page: 2, Limit: 10})
	require.NoError(t, err)

	// 第 2 页应当正好是第 11~20 条
	require.Len(t, resp.Data, 10)
	assert.Equal(t, ids[10], resp.Data[0].ID)
	assert.Equal(t, ids[19], resp.Data[9].ID)

	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, int64(25), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PerPage)
	assert.Equal(t, int64(3), resp.Meta.TotalPages)
}

func TestFindAll_PageBeyondDataIsEmptyNotError(t *testing.T) {
	repo := &fakeRepo{}
	seedOrders(t, repo, 3)
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, nil)

	resp, err := svc.FindAll(context.Background(), &PageRequest{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, int64(1), resp.Meta.TotalPages)
}

func TestFindAll_StatusFilter(t *testing.T) {
	repo := &fakeRepo{}
	ids := seedOrders(t, repo, 4)
	repo.find(ids[1]).Status = domain.StatusCancelled
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, nil)

	resp, err := svc.FindAll(context.Background(), &PageRequest{Page: 1, Limit: 10, Status: "CANCELLED"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, ids[1], resp.Data[0].ID)
	assert.Equal(t, int64(1), resp.Meta.Total)

	_, err = svc.FindAll(context.Background(), &PageRequest{Page: 1, Limit: 10, Status: "NOT_A_STATUS"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

// ---- FindOne ----

func TestFindOne(t *testing.T) {
	repo := &fakeRepo{}
	catalog := defaultCatalog()
	svc := newTestService(repo, catalog, &fakePayment{}, nil)

	order, err := domain.NewOrder([]domain.OrderItem{{ProductID: "P1", Quantity: 2, Price: 10}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(context.Background(), order))

	view, err := svc.FindOne(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, view.ID)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Keyboard", view.Items[0].Name)
	assert.Equal(t, 1, catalog.calls, "names must be re-resolved per lookup, never cached")

	_, err = svc.FindOne(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestFindOne_CatalogFailureIsNotNotFound(t *testing.T) {
	repo := &fakeRepo{}
	order, err := domain.NewOrder([]domain.OrderItem{{ProductID: "P1", Quantity: 1, Price: 10}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(context.Background(), order))

	svc := newTestService(repo, &fakeCatalog{err: domain.ErrRemoteUnavailable}, &fakePayment{}, nil)
	_, err = svc.FindOne(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, domain.ErrOrderNotFound)
}

// ---- ChangeOrderStatus ----

func TestChangeOrderStatus(t *testing.T) {
	repo := &fakeRepo{}
	order, err := domain.NewOrder([]domain.OrderItem{{ProductID: "P1", Quantity: 1, Price: 10}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(context.Background(), order))
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, nil)

	// 幂等空操作：目标状态与当前一致时不产生写入
	view, err := svc.ChangeOrderStatus(context.Background(), order.ID, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, view.Status)
	assert.Zero(t, repo.updateCalls)

	view, err = svc.ChangeOrderStatus(context.Background(), order.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, view.Status)
	assert.Equal(t, 1, repo.updateCalls)

	_, err = svc.ChangeOrderStatus(context.Background(), "missing", domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// ---- CreatePaymentSession (恢复路径) ----

func TestCreatePaymentSession_ForExistingOrder(t *testing.T) {
	repo := &fakeRepo{}
	order, err := domain.NewOrder([]domain.OrderItem{{ProductID: "P2", Quantity: 3, Price: 5}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(context.Background(), order))

	payment := &fakePayment{session: &port.PaymentSession{ID: "cs_retry", URL: "https://pay/cs_retry"}}
	svc := newTestService(repo, defaultCatalog(), payment, nil)

	session, err := svc.CreatePaymentSession(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_retry", session.ID)
	require.Len(t, payment.lastReq, 1)
	assert.Equal(t, "Mouse", payment.lastReq[0].Name)

	_, err = svc.CreatePaymentSession(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// ---- SettleOrder ----

func TestSettleOrder(t *testing.T) {
	repo := &fakeRepo{}
	order, err := domain.NewOrder([]domain.OrderItem{{ProductID: "P1", Quantity: 1, Price: 10}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWithItems(context.Background(), order))

	locker := &fakeLocker{}
	svc := newTestService(repo, defaultCatalog(), &fakePayment{}, locker)

	event := &domain.PaymentSucceededEvent{
		OrderID:         order.ID,
		StripePaymentID: "ch_1",
		ReceiptURL:      "https://receipts.example.com/1",
	}
	require.NoError(t, svc.SettleOrder(context.Background(), event))

	settled := repo.find(order.ID)
	assert.Equal(t, domain.StatusPaid, settled.Status)
	assert.True(t, settled.Paid)
	assert.NotNil(t, settled.PaidAt)
	assert.Equal(t, "ch_1", settled.StripeChargeID)
	require.NotNil(t, settled.Receipt)
	assert.Equal(t, []string{order.ID}, locker.locked)

	// 重放同一事件：不允许出现第二张回执
	err = svc.SettleOrder(context.Background(), event)
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyPaid)
	assert.Equal(t, "https://receipts.example.com/1", repo.find(order.ID).Receipt.ReceiptURL)
}

func TestSettleOrder_UnknownOrder(t *testing.T) {
	svc := newTestService(&fakeRepo{}, defaultCatalog(), &fakePayment{}, nil)
	err := svc.SettleOrder(context.Background(), &domain.PaymentSucceededEvent{OrderID: "missing"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
