// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"

	"bazaar/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	order := &domain.Order{
		ID:          model.ID,
		TotalAmount: model.TotalAmount,
		TotalItems:  model.TotalItems,
		Status:      model.Status,
		Paid:        model.Paid,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.PaidAt.Valid {
		paidAt := model.PaidAt.Time
		order.PaidAt = &paidAt
	}
	if model.StripeChargeID.Valid {
		order.StripeChargeID = model.StripeChargeID.String
	}
	for _, item := range model.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	if model.Receipt != nil {
		order.Receipt = &domain.OrderReceipt{
			ReceiptURL: model.Receipt.ReceiptURL,
			CreatedAt:  model.Receipt.CreatedAt,
		}
	}
	return order
}

// FromDomainOrder 将领域模型转换为数据库模型（用于插入）
func FromDomainOrder(order *domain.Order) *OrderModel {
	if order == nil {
		return nil
	}
	model := &OrderModel{
		ID:          order.ID,
		TotalAmount: order.TotalAmount,
		TotalItems:  order.TotalItems,
		Status:      order.Status,
		Paid:        order.Paid,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	if order.PaidAt != nil {
		model.PaidAt = sql.NullTime{Time: *order.PaidAt, Valid: true}
	}
	if order.StripeChargeID != "" {
		model.StripeChargeID = sql.NullString{String: order.StripeChargeID, Valid: true}
	}
	for _, item := range order.Items {
		model.Items = append(model.Items, OrderItemModel{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return model
}
