package bag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
	"storefront/internal/pricing"
)

// ProductLookup resolves catalogue products. A missing product is reported
// as (nil, nil).
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// Line is one resolved bag entry: a product and either its plain quantity or
// the quantity of a single size.
type Line struct {
	ItemID    string          `json:"itemId"`
	Product   model.Product   `json:"product"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Contents is the aggregated view of a bag.
type Contents struct {
	Items                 []Line          `json:"items"`
	ProductCount          int             `json:"productCount"`
	Total                 decimal.Decimal `json:"total"`
	Delivery              decimal.Decimal `json:"delivery"`
	GrandTotal            decimal.Decimal `json:"grandTotal"`
	FreeDeliveryDelta     decimal.Decimal `json:"freeDeliveryDelta"`
	FreeDeliveryThreshold decimal.Decimal `json:"freeDeliveryThreshold"`
}

// Summarize resolves every entry of the bag against the catalogue and computes
// its totals. A product that no longer exists fails the whole summary with
// model.ErrProductNotFound.
func Summarize(ctx context.Context, state State, products ProductLookup, rule pricing.DeliveryRule) (*Contents, error) {
	contents := &Contents{
		Items:                 []Line{},
		FreeDeliveryThreshold: rule.FreeDeliveryThreshold,
	}

	subtotal := decimal.Zero
	for _, itemID := range state.ProductIDs() {
		entry := state[itemID]

		product, err := resolve(ctx, products, itemID)
		if err != nil {
			return nil, err
		}

		if !entry.IsSized() {
			line := Line{
				ItemID:    itemID,
				Product:   *product,
				Quantity:  entry.Quantity(),
				LineTotal: pricing.LineTotal(product.Price, entry.Quantity()),
			}
			contents.Items = append(contents.Items, line)
			contents.ProductCount += line.Quantity
			subtotal = subtotal.Add(line.LineTotal)
			continue
		}

		for _, size := range entry.SizeCodes() {
			quantity := entry.SizeQuantity(size)
			line := Line{
				ItemID:    itemID,
				Product:   *product,
				Quantity:  quantity,
				Size:      size,
				LineTotal: pricing.LineTotal(product.Price, quantity),
			}
			contents.Items = append(contents.Items, line)
			contents.ProductCount += quantity
			subtotal = subtotal.Add(line.LineTotal)
		}
	}

	totals := rule.Apply(subtotal)
	contents.Total = totals.Subtotal
	contents.Delivery = totals.Delivery
	contents.GrandTotal = totals.GrandTotal
	contents.FreeDeliveryDelta = totals.FreeDeliveryDelta

	return contents, nil
}

// ParseProductID converts a bag key into a catalogue identifier.
func ParseProductID(itemID string) (int64, error) {
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid product id %q", model.ErrProductNotFound, itemID)
	}
	return id, nil
}

func resolve(ctx context.Context, products ProductLookup, itemID string) (*model.Product, error) {
	id, err := ParseProductID(itemID)
	if err != nil {
		return nil, err
	}

	product, err := products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bag item %s: %w", itemID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, itemID)
	}
	return product, nil
}
