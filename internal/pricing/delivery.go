// Package pricing holds the money rules shared by the bag and persisted orders.
//
// The bag total shown before checkout is what the payment provider charges, and the
// persisted order is later matched against that charge, so both sides must derive
// their totals through this package.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// centPlaces is the number of decimal places money is rounded to.
const centPlaces = 2

var hundred = decimal.NewFromInt(100)

// DeliveryRule charges a percentage of the subtotal until the free-delivery threshold is met.
type DeliveryRule struct {
	FreeDeliveryThreshold      decimal.Decimal
	StandardDeliveryPercentage decimal.Decimal
}

// Totals is the result of applying a DeliveryRule to a subtotal.
type Totals struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	Delivery          decimal.Decimal `json:"delivery"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
	FreeDeliveryDelta decimal.Decimal `json:"freeDeliveryDelta"`
}

// NewDeliveryRule parses a threshold and a percentage given as decimal strings.
func NewDeliveryRule(threshold, percentage string) (DeliveryRule, error) {
	t, err := decimal.NewFromString(threshold)
	if err != nil {
		return DeliveryRule{}, fmt.Errorf("invalid free delivery threshold %q: %w", threshold, err)
	}
	p, err := decimal.NewFromString(percentage)
	if err != nil {
		return DeliveryRule{}, fmt.Errorf("invalid standard delivery percentage %q: %w", percentage, err)
	}
	if t.IsNegative() {
		return DeliveryRule{}, fmt.Errorf("free delivery threshold cannot be negative")
	}
	if p.IsNegative() {
		return DeliveryRule{}, fmt.Errorf("standard delivery percentage cannot be negative")
	}
	return DeliveryRule{FreeDeliveryThreshold: t, StandardDeliveryPercentage: p}, nil
}

// Fee returns the delivery charge for a subtotal, rounded to the cent.
func (r DeliveryRule) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(r.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return subtotal.Mul(r.StandardDeliveryPercentage).Div(hundred).Round(centPlaces)
}

// Apply derives delivery, grand total and the distance to free delivery for a subtotal.
func (r DeliveryRule) Apply(subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(centPlaces)
	fee := r.Fee(subtotal)

	delta := decimal.Zero
	if subtotal.LessThan(r.FreeDeliveryThreshold) {
		delta = r.FreeDeliveryThreshold.Sub(subtotal)
	}

	return Totals{
		Subtotal:          subtotal,
		Delivery:          fee,
		GrandTotal:        subtotal.Add(fee),
		FreeDeliveryDelta: delta,
	}
}

// LineTotal is the price of quantity units.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(centPlaces)
}

// ToMinorUnits converts an amount to the integer cents the payment provider expects.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts provider cents back into a decimal amount.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -centPlaces)
}
