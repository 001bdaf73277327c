package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
)

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Funcs(template.FuncMap{
	"productName": func(it model.OrderItem) string {
		if it.Product == nil {
			return fmt.Sprintf("product #%d", it.ProductID)
		}
		return it.Product.Name
	},
}).Parse(
	`Hello {{ .Order.User.Name }},

Thank you for your order #{{ .Order.ID }} at {{ .AppName }}.

Products:
{{- range .Order.Items }}
- {{ productName . }} x {{ .Quantity }} @ {{ .Price.StringFixed 2 }} = {{ .Subtotal.StringFixed 2 }}
{{- end }}

Total: {{ .Order.Total.StringFixed 2 }}
Status: {{ .Order.Status }}
{{ with .Order.Address }}
Shipping address:
{{ .Street }}
{{ .City }}, {{ .State }} {{ .Zip }}
{{ .Country }}
{{ end }}`))

type OrderConfirmationHandler struct {
	orders  repo.OrderRepository
	mailer  Mailer
	appName string
}

func NewOrderConfirmationHandler(orders repo.OrderRepository, mailer Mailer, appName string) *OrderConfirmationHandler {
	return &OrderConfirmationHandler{orders: orders, mailer: mailer, appName: appName}
}

func (h *OrderConfirmationHandler) Handle(ctx context.Context, payload []byte) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.OrderID <= 0 {
		return Permanent(fmt.Errorf("invalid order confirmation payload %q", string(payload)))
	}

	order, err := h.orders.FindDetailed(ctx, p.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return Permanent(fmt.Errorf("order %d: %w", p.OrderID, err))
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", p.OrderID, err)
	}
	if order.User == nil || order.User.Email == "" {
		return Permanent(fmt.Errorf("order %d has no recipient", p.OrderID))
	}

	msg, err := h.Render(order)
	if err != nil {
		return Permanent(err)
	}
	return h.mailer.Send(ctx, msg)
}

// User/Address/Itemsを読み込み済みの注文を渡す
func (h *OrderConfirmationHandler) Render(order model.Order) (Message, error) {
	var body bytes.Buffer
	err := orderConfirmationTmpl.Execute(&body, struct {
		AppName string
		Order   model.Order
	}{AppName: h.appName, Order: order})
	if err != nil {
		return Message{}, fmt.Errorf("render order %d: %w", order.ID, err)
	}

	to := ""
	if order.User != nil {
		to = order.User.Email
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order confirmation #%d", order.ID),
		Body:    body.String(),
	}, nil
}
