package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/bag"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderWriter persists orders and keeps their totals a fold over their line items.
type orderWriter struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	rule     pricing.DeliveryRule
	logger   zerolog.Logger
}

// create writes the order and one line item per bag entry in a single
// transaction, then recalculates the order totals. A product that no longer
// exists rolls the whole order back with model.ErrOrderIntegrity.
func (w *orderWriter) create(ctx context.Context, order *model.Order, state bag.State) (err error) {
	tx, err := w.orders.BeginTx(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				w.logger.Error().Err(rbErr).Str("order_number", order.OrderNumber).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = w.orders.CreateOrder(ctx, tx, order); err != nil {
		w.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	items, err := w.lineItems(ctx, order.ID, state)
	if err != nil {
		w.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("order rolled back")
		return err
	}

	if err = w.orders.CreateLineItems(ctx, tx, items); err != nil {
		w.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Int("item_count", len(items)).
			Msg("failed to create order line items")
		return fmt.Errorf("failed to create order line items: %w", err)
	}

	if err = w.recalculate(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		w.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	order.LineItems = items
	return nil
}

// lineItems expands the bag into line items, one per size for sized entries.
func (w *orderWriter) lineItems(ctx context.Context, orderID int64, state bag.State) ([]model.OrderLineItem, error) {
	var items []model.OrderLineItem
	for _, itemID := range state.ProductIDs() {
		product, err := w.product(ctx, itemID)
		if err != nil {
			return nil, err
		}

		entry := state[itemID]
		if !entry.IsSized() {
			items = append(items, newLineItem(orderID, product, nil, entry.Quantity()))
			continue
		}
		for _, size := range entry.SizeCodes() {
			items = append(items, newLineItem(orderID, product, &size, entry.SizeQuantity(size)))
		}
	}
	return items, nil
}

func (w *orderWriter) product(ctx context.Context, itemID string) (*model.Product, error) {
	id, err := bag.ParseProductID(itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrOrderIntegrity, err)
	}

	product, err := w.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", model.ErrOrderIntegrity, id)
	}
	return product, nil
}

// recalculate sets the order totals from its current line items and stores them.
func (w *orderWriter) recalculate(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	sum, err := w.orders.SumLineItems(ctx, tx, order.ID)
	if err != nil {
		w.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to sum line items")
		return fmt.Errorf("failed to recalculate order totals: %w", err)
	}

	order.ApplyTotals(sum, w.rule)

	if err := w.orders.UpdateTotals(ctx, tx, order); err != nil {
		w.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to update order totals")
		return fmt.Errorf("failed to recalculate order totals: %w", err)
	}
	return nil
}

func newLineItem(orderID int64, product *model.Product, size *string, quantity int) model.OrderLineItem {
	return model.OrderLineItem{
		OrderID:       orderID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		ProductSize:   size,
		Quantity:      quantity,
		LineItemTotal: pricing.LineTotal(product.Price, quantity),
	}
}
