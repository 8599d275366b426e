// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"

	"bazaar/internal/service/order/domain"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID             string        `gorm:"primaryKey;size:36"`
	TotalAmount    float64       `gorm:"type:decimal(12,2)"`
	TotalItems     int           `gorm:"not null"`
	Status         domain.Status `gorm:"size:16;index"`
	Paid           bool          `gorm:"not null;default:false"`
	PaidAt         sql.NullTime
	StripeChargeID sql.NullString `gorm:"size:128"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// 关联关系：行项目与订单同事务创建；回执至多一张
	Items   []OrderItemModel   `gorm:"foreignKey:OrderID"`
	Receipt *OrderReceiptModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表
type OrderItemModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OrderID   string  `gorm:"size:36;index;not null"`
	ProductID string  `gorm:"size:64;not null"`
	Quantity  int     `gorm:"not null"`
	Price     float64 `gorm:"type:decimal(12,2)"` // 下单时刻的目录价格快照
}

// TableName 指定 GORM 应该使用的表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderReceiptModel 对应数据库中的 order_receipts 表。
// OrderID 上的唯一索引从存储层保证“一单一回执”。
type OrderReceiptModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	OrderID    string `gorm:"size:36;uniqueIndex;not null"`
	ReceiptURL string `gorm:"size:512;not null"`
	CreatedAt  time.Time
}

// TableName 指定 GORM 应该使用的表名
func (OrderReceiptModel) TableName() string {
	return "order_receipts"
}
