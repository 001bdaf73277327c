package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	infra "github.com/rs-labo46/ec-backoffice/internal/infra/repository"
	"github.com/rs-labo46/ec-backoffice/internal/notification"
	"github.com/rs-labo46/ec-backoffice/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []notification.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notification.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestOrderConfirmation_Render(t *testing.T) {
	h := notification.NewOrderConfirmationHandler(nil, &recordingMailer{}, "Shop")

	order := model.Order{
		ID:     12,
		Total:  decimal.RequireFromString("250"),
		Status: model.OrderStatusPending,
		User:   &model.User{Name: "Ana", Email: "ana@example.com"},
		Address: &model.Address{
			Street: "Main 1", City: "Rosario", State: "SF", Zip: "2000", Country: "Argentina",
		},
		Items: []model.OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100"), Product: &model.Product{Name: "Pen"}},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("50")},
		},
	}

	msg, err := h.Render(order)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Order confirmation #12", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Ana")
	assert.Contains(t, msg.Body, "- Pen x 2 @ 100.00 = 200.00")
	assert.Contains(t, msg.Body, "- product #2 x 1 @ 50.00 = 50.00")
	assert.Contains(t, msg.Body, "Total: 250.00")
	assert.Contains(t, msg.Body, "Rosario, SF 2000")
}

func TestOrderConfirmation_EndToEndThroughWorker(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "ana@example.com")
	a := testutil.CreateAddress(t, db, u.ID)
	p := testutil.CreateProduct(t, db, "Pen", "100.00", 5)

	orders := infra.NewOrderGormRepository(db)
	o, err := orders.Create(ctx, model.Order{
		UserID: u.ID, AddressID: a.ID, Status: model.OrderStatusPending, Total: decimal.RequireFromString("200"),
	})
	require.NoError(t, err)
	_, err = infra.NewOrderItemGormRepository(db).Create(ctx, model.OrderItem{
		OrderID: o.ID, ProductID: p.ID, Quantity: 2, Price: p.Price,
	})
	require.NoError(t, err)

	jobs := infra.NewJobGormRepository(db)
	mailer := &recordingMailer{}
	worker := notification.NewWorker(jobs)
	worker.Register(notification.JobOrderConfirmation, notification.NewOrderConfirmationHandler(orders, mailer, "Shop"))

	require.NoError(t, notification.NewQueue(jobs, 3).EnqueueOrderConfirmation(ctx, o.ID))
	assert.Equal(t, 1, worker.ProcessOnce(ctx))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ana@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "Pen x 2")
}

func TestOrderConfirmation_HandleErrors(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	h := notification.NewOrderConfirmationHandler(infra.NewOrderGormRepository(db), &recordingMailer{}, "Shop")

	// 壊れたpayloadと存在しない注文はリトライしない
	err := h.Handle(ctx, []byte("not json"))
	require.Error(t, err)
	assert.True(t, isPermanentErr(err))

	err = h.Handle(ctx, []byte(`{"order_id":404}`))
	require.Error(t, err)
	assert.True(t, isPermanentErr(err))
}

func TestOrderConfirmation_MailerErrorIsRetryable(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "ana@example.com")
	a := testutil.CreateAddress(t, db, u.ID)
	orders := infra.NewOrderGormRepository(db)
	o, err := orders.Create(ctx, model.Order{UserID: u.ID, AddressID: a.ID, Status: model.OrderStatusPending})
	require.NoError(t, err)

	h := notification.NewOrderConfirmationHandler(orders, &recordingMailer{err: errors.New("421 try later")}, "Shop")
	err = h.Handle(ctx, []byte(`{"order_id":`+itoa(o.ID)+`}`))
	require.Error(t, err)
	assert.False(t, isPermanentErr(err))
}
