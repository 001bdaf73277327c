package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/query"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return order, nil
}

func (r *OrderGormRepository) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("total", total)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindDetailed(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, p query.Params) ([]model.Order, int64, error) {
	q := query.Where(r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID), p, query.OrderSpec)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	q = query.Paginate(query.OrderBy(q, p, query.OrderSpec), p)
	if err := withItems(q).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Stats(ctx context.Context) (repo.OrderStats, error) {
	var row struct {
		TotalOrders     int64
		PendingOrders   int64
		CompletedOrders int64
		TotalRevenue    decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).Select(
		"COUNT(*) AS total_orders, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_orders, "+
			"COALESCE(SUM(total), 0) AS total_revenue",
		model.OrderStatusPending, model.OrderStatusCompleted,
	).Scan(&row).Error
	if err != nil {
		return repo.OrderStats{}, err
	}
	return repo.OrderStats{
		TotalOrders:     row.TotalOrders,
		PendingOrders:   row.PendingOrders,
		CompletedOrders: row.CompletedOrders,
		TotalRevenue:    row.TotalRevenue,
	}, nil
}

// 明細の商品は削除済みでも読む（履歴として残るため）
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() })
}

func withDetails(db *gorm.DB) *gorm.DB {
	return withItems(db).Preload("User").Preload("Address").Preload("Invoice")
}

type OrderItemGormRepository struct {
	db *gorm.DB
}

var _ repo.OrderItemRepository = (*OrderItemGormRepository)(nil)

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) Create(ctx context.Context, item model.OrderItem) (model.OrderItem, error) {
	if err := r.db.WithContext(ctx).Omit("Product").Create(&item).Error; err != nil {
		return model.OrderItem{}, translate(err)
	}
	return item, nil
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}
