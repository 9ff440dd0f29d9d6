package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/pricing"
)

// ContactDetails are the customer and shipping fields of an order.
// Optional fields are nil when unset, never empty strings.
type ContactDetails struct {
	FullName       string  `json:"fullName" db:"full_name"`
	Email          string  `json:"email" db:"email"`
	PhoneNumber    string  `json:"phoneNumber" db:"phone_number"`
	Country        string  `json:"country" db:"country"`
	Postcode       *string `json:"postcode,omitempty" db:"postcode"`
	TownOrCity     string  `json:"townOrCity" db:"town_or_city"`
	StreetAddress1 string  `json:"streetAddress1" db:"street_address1"`
	StreetAddress2 *string `json:"streetAddress2,omitempty" db:"street_address2"`
	County         *string `json:"county,omitempty" db:"county"`
}

// Order represents a placed customer order.
type Order struct {
	ID            int64  `json:"-" db:"id"`
	OrderNumber   string `json:"orderNumber" db:"order_number"`
	UserProfileID *int64 `json:"-" db:"user_profile_id"`
	ContactDetails
	Date         time.Time       `json:"date" db:"date"`
	DeliveryCost decimal.Decimal `json:"deliveryCost" db:"delivery_cost"`
	OrderTotal   decimal.Decimal `json:"orderTotal" db:"order_total"`
	GrandTotal   decimal.Decimal `json:"grandTotal" db:"grand_total"`
	OriginalBag  string          `json:"-" db:"original_bag"`
	StripePID    string          `json:"-" db:"stripe_pid"`
	LineItems    []OrderLineItem `json:"lineItems,omitempty" db:"-"`
}

// OrderLineItem is one product, size and quantity attached to an order.
type OrderLineItem struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"-" db:"order_id"`
	ProductID     int64           `json:"productId" db:"product_id"`
	ProductName   string          `json:"productName,omitempty" db:"product_name"`
	ProductSize   *string         `json:"productSize,omitempty" db:"product_size"`
	Quantity      int             `json:"quantity" db:"quantity"`
	LineItemTotal decimal.Decimal `json:"lineItemTotal" db:"lineitem_total"`
}

// OrderMatch is the de-duplication key used to recognise an order that was
// already written for a payment.
type OrderMatch struct {
	ContactDetails
	GrandTotal  decimal.Decimal
	OriginalBag string
	StripePID   string
}

// NewOrderNumber returns a random, unguessable 32-character upper-case hex order number.
func NewOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ApplyTotals sets the order's totals from the sum of its line items.
func (o *Order) ApplyTotals(lineItemsTotal decimal.Decimal, rule pricing.DeliveryRule) {
	totals := rule.Apply(lineItemsTotal)
	o.OrderTotal = totals.Subtotal
	o.DeliveryCost = totals.Delivery
	o.GrandTotal = totals.GrandTotal
}
