// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"bazaar/internal/service/order/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM/MySQL 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Migrate 建表。演示环境用 AutoMigrate，生产环境应使用独立的迁移工具。
func (r *GormOrderRepository) Migrate() error {
	return r.db.AutoMigrate(&OrderModel{}, &OrderItemModel{}, &OrderReceiptModel{})
}

// CreateWithItems 在一个事务里写入订单与全部行项目。
// GORM 对携带关联的 Create 自动套事务，父子要么全部可见要么全部不可见。
func (r *GormOrderRepository) CreateWithItems(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.WithMessagef(domain.ErrPersistence, "creating order %s: %v", order.ID, err)
	}
	return nil
}

// FindByID 按ID查找订单，预加载行项目与回执。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Receipt").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithMessagef(domain.ErrOrderNotFound, "id %s", id)
		}
		return nil, errors.WithMessagef(domain.ErrPersistence, "loading order %s: %v", id, err)
	}
	return ToDomainOrder(&model), nil
}

// FindPage 返回一页订单（按创建时间升序）与满足过滤条件的总数。
// 列表查询不预加载行项目，行项目只在点查时需要。
func (r *GormOrderRepository) FindPage(ctx context.Context, query domain.PageQuery) ([]domain.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&OrderModel{})
	if query.Status != nil {
		base = base.Where("status = ?", *query.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.WithMessagef(domain.ErrPersistence, "counting orders: %v", err)
	}

	var models []OrderModel
	err := base.
		Order("created_at ASC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, errors.WithMessagef(domain.ErrPersistence, "listing orders: %v", err)
	}

	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *ToDomainOrder(&models[i]))
	}
	return orders, total, nil
}

// UpdateStatus 只更新状态字段并返回更新后的订单。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, errors.WithMessagef(domain.ErrPersistence, "updating order %s status: %v", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.WithMessagef(domain.ErrOrderNotFound, "id %s", id)
	}
	return r.FindByID(ctx, id)
}

// Settle 在一个事务里完成结算写入。
// 行级锁 + 已支付前置检查串行化同一订单的结算；回执表的唯一索引
// 是并发场景下防止第二张回执的最后一道防线。
func (r *GormOrderRepository) Settle(ctx context.Context, orderID, chargeID, receiptURL string) (*domain.Order, error) {
	var settled *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model OrderModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithMessagef(domain.ErrOrderNotFound, "id %s", orderID)
			}
			return errors.WithMessagef(domain.ErrPersistence, "loading order %s for settlement: %v", orderID, err)
		}

		entity := ToDomainOrder(&model)
		if err := entity.Settle(chargeID, receiptURL, time.Now()); err != nil {
			return err // ErrOrderAlreadyPaid
		}

		updates := map[string]interface{}{
			"status":           entity.Status,
			"paid":             entity.Paid,
			"paid_at":          entity.PaidAt,
			"stripe_charge_id": entity.StripeChargeID,
			"updated_at":       entity.UpdatedAt,
		}
		if err := tx.Model(&OrderModel{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return errors.WithMessagef(domain.ErrPersistence, "settling order %s: %v", orderID, err)
		}

		receipt := OrderReceiptModel{
			OrderID:    orderID,
			ReceiptURL: receiptURL,
			CreatedAt:  entity.Receipt.CreatedAt,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			if isDuplicateKey(err) {
				return errors.WithMessagef(domain.ErrOrderAlreadyPaid, "receipt already exists for order %s", orderID)
			}
			return errors.WithMessagef(domain.ErrPersistence, "creating receipt for order %s: %v", orderID, err)
		}

		settled = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// isDuplicateKey 识别 MySQL 的唯一键冲突 (error 1062)。
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
