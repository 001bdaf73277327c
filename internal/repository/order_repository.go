package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/query"
	"github.com/shopspring/decimal"
)

// 注文の集計
type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error

	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// user, address, invoice, items.product（削除済み商品も）まで読み込む
	FindDetailed(ctx context.Context, orderID int64) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64, p query.Params) ([]model.Order, int64, error)
	Stats(ctx context.Context) (OrderStats, error)
}

type OrderItemRepository interface {
	Create(ctx context.Context, item model.OrderItem) (model.OrderItem, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
