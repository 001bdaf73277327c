package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/cache"
	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	infra "github.com/rs-labo46/ec-backoffice/internal/infra/repository"
	"github.com/rs-labo46/ec-backoffice/internal/testutil"
	"github.com/rs-labo46/ec-backoffice/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db       *gorm.DB
	orders   *usecase.OrderUsecase
	products *usecase.ProductUsecase
	notifier *NotifierMock
	user     model.User
	address  model.Address
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	db := testutil.NewDB(t)
	c := cache.New(cache.NewMemoryStore(128, time.Hour), nil)
	products := usecase.NewProductUsecase(infra.NewProductGormRepository(db), c, testTTL)
	notifier := new(NotifierMock)
	orders := usecase.NewOrderUsecase(
		infra.NewTxManagerGorm(db),
		infra.NewOrderGormRepository(db),
		infra.NewAddressGormRepository(db),
		products,
		c,
		notifier,
		testTTL,
	)
	u := testutil.CreateUser(t, db, "buyer@example.com")
	return orderFixture{
		db:       db,
		orders:   orders,
		products: products,
		notifier: notifier,
		user:     u,
		address:  testutil.CreateAddress(t, db, u.ID),
	}
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Order{}).Count(&n).Error)
	return n
}

// =====================
// PlaceOrder
// =====================

func TestOrderUsecase_PlaceOrder_TotalFromSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p1 := testutil.CreateProduct(t, f.db, "Pen", "100.00", 10)
	p2 := testutil.CreateProduct(t, f.db, "Pad", "50.00", 10)

	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.AnythingOfType("int64")).Return(nil).Once()

	o, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
		AddressID: f.address.ID,
		Items: []usecase.PlaceOrderItem{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("250")), o.Total.String())
	assert.Equal(t, model.OrderStatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, p1.ID, o.Items[0].ProductID)
	assert.True(t, o.Items[0].Price.Equal(p1.Price))

	// 後から価格を変えても明細と合計は変わらない
	newPrice := decimal.RequireFromString("999.00")
	_, err = f.products.Update(ctx, p1.ID, usecase.ProductInput{Price: &newPrice})
	require.NoError(t, err)

	again, err := f.orders.GetOrder(ctx, f.user.ID, o.ID)
	require.NoError(t, err)
	assert.True(t, again.Total.Equal(decimal.RequireFromString("250")))
	assert.True(t, again.Items[0].Price.Equal(decimal.RequireFromString("100")))

	f.notifier.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_MissingProductRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Cup", "10.00", 1)

	_, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
		AddressID: f.address.ID,
		Items: []usecase.PlaceOrderItem{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: 424242, Quantity: 1},
		},
	})
	he := assertHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
	assert.Contains(t, he.Message, "424242")

	assert.Equal(t, int64(0), countOrders(t, f.db))
	var items int64
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(0), items)

	f.notifier.AssertNotCalled(t, "EnqueueOrderConfirmation", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_SoftDeletedProductIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Lamp", "30.00", 1)

	// キャッシュに載せてから削除
	_, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.products.SoftDelete(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
		AddressID: f.address.ID,
		Items:     []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	assertHTTPError(t, err, http.StatusNotFound, "")
	assert.Equal(t, int64(0), countOrders(t, f.db))
}

func TestOrderUsecase_PlaceOrder_AddressChecks(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Book", "12.00", 1)
	other := testutil.CreateUser(t, f.db, "other@example.com")
	otherAddr := testutil.CreateAddress(t, f.db, other.ID)
	items := []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}

	_, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{AddressID: otherAddr.ID, Items: items})
	assertHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)

	_, err = f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{AddressID: 999, Items: items})
	assertHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)

	_, err = f.orders.PlaceOrder(ctx, 0, usecase.PlaceOrderInput{AddressID: f.address.ID, Items: items})
	assertHTTPError(t, err, http.StatusUnauthorized, usecase.CodeUnauthorized)

	assert.Equal(t, int64(0), countOrders(t, f.db))
}

func TestOrderUsecase_PlaceOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), f.user.ID, usecase.PlaceOrderInput{
		Items: []usecase.PlaceOrderItem{{ProductID: 0, Quantity: 0}},
	})
	he := assertHTTPError(t, err, http.StatusUnprocessableEntity, usecase.CodeValidation)
	assert.Contains(t, he.Fields, "address_id")
	assert.Contains(t, he.Fields, "items.0.product_id")
	assert.Contains(t, he.Fields, "items.0.quantity")

	_, err = f.orders.PlaceOrder(context.Background(), f.user.ID, usecase.PlaceOrderInput{AddressID: f.address.ID})
	he = assertHTTPError(t, err, http.StatusUnprocessableEntity, usecase.CodeValidation)
	assert.Contains(t, he.Fields, "items")
}

func TestOrderUsecase_PlaceOrder_NotifierFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Bag", "20.00", 1)

	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything).Return(errors.New("queue down")).Once()

	o, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
		AddressID: f.address.ID,
		Items:     []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("60")))
	assert.Equal(t, int64(1), countOrders(t, f.db))
}

// =====================
// 一覧 / 詳細 / 集計とキャッシュ
// =====================

func TestOrderUsecase_ListAndStatsRefreshAfterPlace(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Mug", "15.00", 1)
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything).Return(nil)

	place := func() {
		_, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
			AddressID: f.address.ID,
			Items:     []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	place()

	page, err := f.orders.ListMyOrders(ctx, f.user.ID, url.Values{"status": {"pending"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	stats, err := f.orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalOrders)

	place()

	page, err = f.orders.ListMyOrders(ctx, f.user.ID, url.Values{"status": {"pending"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	stats, err = f.orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("30")), stats.TotalRevenue.String())

	_, err = f.orders.ListMyOrders(ctx, f.user.ID, url.Values{"status": {"lost"}})
	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeBadRequest)
}

func TestOrderUsecase_GetOrder_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	p := testutil.CreateProduct(t, f.db, "Hat", "5.00", 1)
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything).Return(nil)

	o, err := f.orders.PlaceOrder(ctx, f.user.ID, usecase.PlaceOrderInput{
		AddressID: f.address.ID,
		Items:     []usecase.PlaceOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// 本人が読んでキャッシュされた後でも、他人は403
	_, err = f.orders.GetOrder(ctx, f.user.ID, o.ID)
	require.NoError(t, err)
	other := testutil.CreateUser(t, f.db, "intruder@example.com")
	_, err = f.orders.GetOrder(ctx, other.ID, o.ID)
	assertHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)

	_, err = f.orders.GetOrder(ctx, f.user.ID, 9999)
	assertHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
}
