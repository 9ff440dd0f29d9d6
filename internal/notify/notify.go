// Package notify delivers order confirmation emails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"storefront/internal/model"
)

// Notifier sends the confirmation email for a placed order.
type Notifier interface {
	SendConfirmation(ctx context.Context, order *model.Order) error
}

// Email is a rendered confirmation email.
type Email struct {
	OrderNumber string `json:"orderNumber"`
	From        string `json:"from"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

const subjectTemplate = `{{ .StoreName }} confirmation for order number {{ .Order.OrderNumber }}`

const bodyTemplate = `Hello {{ .Order.FullName }},

This is a confirmation of your order at {{ .StoreName }}. Your order information is below:

Order Number: {{ .Order.OrderNumber }}
Order Date: {{ .Order.Date.Format "2 January 2006 15:04" }}
{{ range .Order.LineItems }}
  {{ .Quantity }} x {{ .ProductName }}{{ with .ProductSize }} (size {{ . }}){{ end }}: ${{ .LineItemTotal.StringFixed 2 }}
{{- end }}

Order Total: ${{ .Order.OrderTotal.StringFixed 2 }}
Delivery: ${{ .Order.DeliveryCost.StringFixed 2 }}
Grand Total: ${{ .Order.GrandTotal.StringFixed 2 }}

Your order will be shipped to {{ .Order.StreetAddress1 }} in {{ .Order.TownOrCity }}, {{ .Order.Country }}.

We've got your phone number on file as {{ .Order.PhoneNumber }}.

If you have any questions, feel free to contact us at {{ .From }}.

Thank you for your order!

Sincerely,

{{ .StoreName }}
`

// Renderer turns an order into its confirmation email.
type Renderer struct {
	from      string
	storeName string
	subject   *template.Template
	body      *template.Template
}

// NewRenderer parses the confirmation templates.
func NewRenderer(from, storeName string) (*Renderer, error) {
	subject, err := template.New("subject").Parse(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject template: %w", err)
	}
	body, err := template.New("body").Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse body template: %w", err)
	}
	return &Renderer{from: from, storeName: storeName, subject: subject, body: body}, nil
}

// Render produces the confirmation email for order.
func (r *Renderer) Render(order *model.Order) (*Email, error) {
	data := struct {
		Order     *model.Order
		StoreName string
		From      string
	}{order, r.storeName, r.from}

	var subject, body bytes.Buffer
	if err := r.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := r.body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	return &Email{
		OrderNumber: order.OrderNumber,
		From:        r.from,
		To:          order.Email,
		// Subjects must be single-line.
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		Body:    body.String(),
	}, nil
}
