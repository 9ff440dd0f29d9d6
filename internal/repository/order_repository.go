package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `
	id, order_number, user_profile_id, full_name, email, phone_number, country, postcode,
	town_or_city, street_address1, street_address2, county, date, delivery_cost,
	order_total, grand_total, original_bag, stripe_pid`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			order_number, user_profile_id, full_name, email, phone_number, country, postcode,
			town_or_city, street_address1, street_address2, county, delivery_cost,
			order_total, grand_total, original_bag, stripe_pid
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, date
	`

	err := tx.QueryRow(ctx, query,
		order.OrderNumber, order.UserProfileID, order.FullName, order.Email, order.PhoneNumber,
		order.Country, order.Postcode, order.TownOrCity, order.StreetAddress1, order.StreetAddress2,
		order.County, order.DeliveryCost, order.OrderTotal, order.GrandTotal, order.OriginalBag,
		order.StripePID,
	).Scan(&order.ID, &order.Date)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_number", order.OrderNumber).
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateLineItems inserts line items within the provided transaction.
func (r *orderRepository) CreateLineItems(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_line_items (order_id, product_id, product_size, quantity, lineitem_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.ProductSize, item.Quantity, item.LineItemTotal)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create line item")
			return fmt.Errorf("failed to create line item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("line items created successfully")

	return nil
}

// LockByNumber retrieves an order and locks its row for the rest of the transaction.
func (r *orderRepository) LockByNumber(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE order_number = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

// GetLineItem retrieves one line item of an order.
func (r *orderRepository) GetLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (*model.OrderLineItem, error) {
	query := `
		SELECT li.id, li.order_id, li.product_id, p.name, li.product_size, li.quantity, li.lineitem_total
		FROM order_line_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.order_id = $1 AND li.id = $2
	`

	item, err := scanLineItem(tx.QueryRow(ctx, query, orderID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("line_item_id", itemID).Msg("failed to query line item")
		return nil, fmt.Errorf("failed to query line item: %w", err)
	}
	return item, nil
}

// UpdateLineItem stores a line item's quantity and total.
func (r *orderRepository) UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error {
	query := `
		UPDATE order_line_items
		SET quantity = $3, lineitem_total = $4
		WHERE order_id = $1 AND id = $2
	`

	tag, err := tx.Exec(ctx, query, item.OrderID, item.ID, item.Quantity, item.LineItemTotal)
	if err != nil {
		r.logger.Error().Err(err).Int64("line_item_id", item.ID).Msg("failed to update line item")
		return fmt.Errorf("failed to update line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLineItemMissing
	}
	return nil
}

// DeleteLineItem removes a line item and reports whether it existed.
func (r *orderRepository) DeleteLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM order_line_items WHERE order_id = $1 AND id = $2`, orderID, itemID)
	if err != nil {
		r.logger.Error().Err(err).Int64("line_item_id", itemID).Msg("failed to delete line item")
		return false, fmt.Errorf("failed to delete line item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SumLineItems returns the sum of the order's line item totals.
func (r *orderRepository) SumLineItems(ctx context.Context, tx pgx.Tx, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(lineitem_total), 0) FROM order_line_items WHERE order_id = $1`
	if err := tx.QueryRow(ctx, query, orderID).Scan(&total); err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to sum line items")
		return decimal.Zero, fmt.Errorf("failed to sum line items: %w", err)
	}
	return total, nil
}

// UpdateTotals stores the order's totals.
func (r *orderRepository) UpdateTotals(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET delivery_cost = $2, order_total = $3, grand_total = $4
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, order.ID, order.DeliveryCost, order.OrderTotal, order.GrandTotal)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to update order totals")
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// GetByNumber retrieves an order with its line items.
func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_number", orderNumber).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if order.LineItems, err = r.lineItems(ctx, r.pool, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// FindMatching returns the order written for a payment, or nil when none exists yet.
func (r *orderRepository) FindMatching(ctx context.Context, m *model.OrderMatch) (*model.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM orders
		WHERE lower(full_name) = lower($1::text)
		AND lower(email) = lower($2::text)
		AND lower(phone_number) = lower($3::text)
		AND lower(country) = lower($4::text)
		AND lower(postcode) IS NOT DISTINCT FROM lower($5::text)
		AND lower(town_or_city) = lower($6::text)
		AND lower(street_address1) = lower($7::text)
		AND lower(street_address2) IS NOT DISTINCT FROM lower($8::text)
		AND lower(county) IS NOT DISTINCT FROM lower($9::text)
		AND grand_total = $10
		AND original_bag = $11
		AND stripe_pid = $12
		ORDER BY id
		LIMIT 1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query,
		m.FullName, m.Email, m.PhoneNumber, m.Country, m.Postcode, m.TownOrCity,
		m.StreetAddress1, m.StreetAddress2, m.County, m.GrandTotal, m.OriginalBag, m.StripePID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("stripe_pid", m.StripePID).Msg("failed to match order")
		return nil, fmt.Errorf("failed to match order: %w", err)
	}
	return order, nil
}

// ListByProfile returns a profile's orders, newest first.
func (r *orderRepository) ListByProfile(ctx context.Context, profileID int64) ([]model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE user_profile_id = $1 ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_profile_id", profileID).Msg("failed to query profile orders")
		return nil, fmt.Errorf("failed to query profile orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) lineItems(ctx context.Context, q querier, orderID int64) ([]model.OrderLineItem, error) {
	query := `
		SELECT li.id, li.order_id, li.product_id, p.name, li.product_size, li.quantity, li.lineitem_total
		FROM order_line_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.order_id = $1
		ORDER BY li.id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to query line items")
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderLineItem{}
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan line item row")
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating line item rows")
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserProfileID, &o.FullName, &o.Email, &o.PhoneNumber,
		&o.Country, &o.Postcode, &o.TownOrCity, &o.StreetAddress1, &o.StreetAddress2, &o.County,
		&o.Date, &o.DeliveryCost, &o.OrderTotal, &o.GrandTotal, &o.OriginalBag, &o.StripePID,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanLineItem(row pgx.Row) (*model.OrderLineItem, error) {
	var li model.OrderLineItem
	err := row.Scan(&li.ID, &li.OrderID, &li.ProductID, &li.ProductName, &li.ProductSize, &li.Quantity, &li.LineItemTotal)
	if err != nil {
		return nil, err
	}
	return &li, nil
}
