package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	writer *orderWriter
	logger zerolog.Logger
}

// NewOrderService creates a new order administration service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	rule pricing.DeliveryRule,
	logger zerolog.Logger,
) OrderService {
	logger = logger.With().Str("service", "order").Logger()
	return &orderService{
		writer: &orderWriter{
			orders:   orderRepo,
			products: productRepo,
			rule:     rule,
			logger:   logger,
		},
		logger: logger,
	}
}

// UpdateLineItem sets a line item's quantity, recomputes its total and the order totals.
func (s *orderService) UpdateLineItem(ctx context.Context, orderNumber string, itemID int64, quantity int) (*model.Order, error) {
	if quantity < 1 || quantity > model.MaxItemQuantity {
		return nil, model.ErrInvalidQuantity
	}

	err := s.mutate(ctx, orderNumber, func(tx pgx.Tx, order *model.Order) error {
		item, err := s.writer.orders.GetLineItem(ctx, tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrLineItemMissing
		}

		product, err := s.writer.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return model.ErrProductNotFound
		}

		item.Quantity = quantity
		item.LineItemTotal = pricing.LineTotal(product.Price, quantity)
		return s.writer.orders.UpdateLineItem(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_number", orderNumber).
		Int64("line_item_id", itemID).
		Int("quantity", quantity).
		Msg("line item updated")

	return s.get(ctx, orderNumber)
}

// DeleteLineItem removes a line item and recomputes the order totals.
func (s *orderService) DeleteLineItem(ctx context.Context, orderNumber string, itemID int64) (*model.Order, error) {
	err := s.mutate(ctx, orderNumber, func(tx pgx.Tx, order *model.Order) error {
		deleted, err := s.writer.orders.DeleteLineItem(ctx, tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if !deleted {
			return model.ErrLineItemMissing
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_number", orderNumber).
		Int64("line_item_id", itemID).
		Msg("line item deleted")

	return s.get(ctx, orderNumber)
}

// mutate locks the order, applies fn and recalculates the totals in one transaction.
func (s *orderService) mutate(ctx context.Context, orderNumber string, fn func(tx pgx.Tx, order *model.Order) error) (err error) {
	tx, err := s.writer.orders.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Str("order_number", orderNumber).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.writer.orders.LockByNumber(ctx, tx, orderNumber)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return err
	}

	if err = fn(tx, order); err != nil {
		return err
	}

	if err = s.writer.recalculate(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (s *orderService) get(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.writer.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}
