package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs-labo46/ec-backoffice/internal/cache"
	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/metrics"
	"github.com/rs-labo46/ec-backoffice/internal/query"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
	"github.com/rs-labo46/ec-backoffice/internal/validator"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// 注文確定後の通知（キューに積むだけでメールは送らない）
type OrderNotifier interface {
	EnqueueOrderConfirmation(ctx context.Context, orderID int64) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	addresses repo.AddressRepository
	products  *ProductUsecase
	cache     *cache.Cache
	notifier  OrderNotifier
	ttl       CacheTTL
	logger    *log.Entry
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	addresses repo.AddressRepository,
	products *ProductUsecase,
	c *cache.Cache,
	notifier OrderNotifier,
	ttl CacheTTL,
) *OrderUsecase {
	if c == nil {
		c = cache.NewNop()
	}
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		addresses: addresses,
		products:  products,
		cache:     c,
		notifier:  notifier,
		ttl:       ttl,
		logger:    log.WithField("component", "order-usecase"),
	}
}

type PlaceOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	AddressID int64            `json:"address_id"`
	Items     []PlaceOrderItem `json:"items"`
}

func (in PlaceOrderInput) validate() validator.Errors {
	fields := validator.Errors{}
	if in.AddressID <= 0 {
		fields.Add("address_id", "The address id field is required.")
	}
	if len(in.Items) == 0 {
		fields.Add("items", "The items field is required.")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			fields.Add(fmt.Sprintf("items.%d.product_id", i), "The product id field is required.")
		}
		fields.Positive(fmt.Sprintf("items.%d.quantity", i), it.Quantity)
	}
	return fields
}

// PlaceOrder は注文と明細を1つのTxで作る。
// 明細の価格はその時点の商品価格で、合計は Σ価格×数量。
// 在庫は減らさない（引当なし）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if fields := in.validate(); !fields.Empty() {
		return model.Order{}, NewValidationError(fields)
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if addr.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var created model.Order

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().Create(ctx, model.Order{
			UserID:    userID,
			AddressID: in.AddressID,
			Total:     decimal.Zero,
			Status:    model.OrderStatusPending,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(in.Items))

		//入力順に処理
		for _, it := range in.Items {
			p, err := u.products.find(ctx, r.Products(), it.ProductID)
			if err != nil {
				if he, ok := AsHTTPError(err); ok && he.Status == http.StatusNotFound {
					return NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %d not found", it.ProductID))
				}
				return err
			}

			//スナップショット
			item, err := r.OrderItems().Create(ctx, model.OrderItem{
				OrderID:   order.ID,
				ProductID: p.ID,
				Quantity:  it.Quantity,
				Price:     p.Price,
			})
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			items = append(items, item)

			total = total.Add(item.Subtotal())
		}

		if err := r.Orders().UpdateTotal(ctx, order.ID, total); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.Total = total
		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	metrics.OrdersCreated.Inc()
	u.invalidateAfterPlace(ctx, created)

	//通知の失敗で注文は取り消さない
	if u.notifier != nil {
		if err := u.notifier.EnqueueOrderConfirmation(ctx, created.ID); err != nil {
			u.logger.WithError(err).WithField("order_id", created.ID).Error("failed to enqueue order confirmation")
		}
	}

	detailed, err := u.orders.FindDetailed(ctx, created.ID)
	if err != nil {
		u.logger.WithError(err).WithField("order_id", created.ID).Warn("failed to reload order")
		return created, nil
	}
	return detailed, nil
}

func (u *OrderUsecase) invalidateAfterPlace(ctx context.Context, order model.Order) {
	u.cache.FlushTag(ctx, cache.UserOrdersTag(order.UserID), cache.UserOrdersFallbackKeys(order.UserID)...)

	keys := []string{cache.OrderStatsKey}
	seen := map[int64]bool{}
	for _, it := range order.Items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		keys = append(keys, cache.ProductKey(it.ProductID))
	}
	u.cache.Forget(ctx, keys...)
}

// GET /orders（自分の注文だけ）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, values url.Values) (query.Page[model.Order], error) {
	if userID <= 0 {
		return query.Page[model.Order]{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	p, err := parseQuery(values, query.OrderSpec)
	if err != nil {
		return query.Page[model.Order]{}, err
	}

	return cache.Remember(ctx, u.cache, cache.UserOrdersKey(userID, p), u.ttl.Order, []string{cache.UserOrdersTag(userID)},
		func(ctx context.Context) (query.Page[model.Order], error) {
			orders, total, err := u.orders.ListByUserID(ctx, userID, p)
			if err != nil {
				return query.Page[model.Order]{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return query.NewPage(orders, total, p), nil
		})
}

// GET /orders/:id 他人の注文は403
func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}

	o, err := cache.Remember(ctx, u.cache, cache.OrderKey(orderID), u.ttl.Order, nil,
		func(ctx context.Context) (model.Order, error) {
			o, err := u.orders.FindDetailed(ctx, orderID)
			if errors.Is(err, repo.ErrNotFound) {
				return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
			}
			if err != nil {
				return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return o, nil
		})
	if err != nil {
		return model.Order{}, err
	}

	//所有チェックはキャッシュの後で毎回行う
	if o.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return o, nil
}

// GET /orders/stats（全体の集計）
func (u *OrderUsecase) Stats(ctx context.Context) (repo.OrderStats, error) {
	return cache.Remember(ctx, u.cache, cache.OrderStatsKey, u.ttl.OrderStats, nil,
		func(ctx context.Context) (repo.OrderStats, error) {
			s, err := u.orders.Stats(ctx)
			if err != nil {
				return repo.OrderStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return s, nil
		})
}
