package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for catalogue data access operations.
type ProductRepository interface {
	// List returns the products matching the query.
	List(ctx context.Context, query model.ProductQuery) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. A missing product yields (nil, nil).
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Categories returns all categories ordered by name.
	Categories(ctx context.Context) ([]model.Category, error)

	// UpsertCategory inserts a category or updates the one with the same name, setting its ID.
	UpsertCategory(ctx context.Context, category *model.Category) error

	// UpsertProduct inserts a product or, when its ID is set, replaces the existing row.
	UpsertProduct(ctx context.Context, product *model.Product) error

	// SyncSequences moves the ID sequences past rows inserted with explicit IDs.
	SyncSequences(ctx context.Context) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and sets its ID and date.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateLineItems inserts line items within the provided transaction and sets their IDs.
	CreateLineItems(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) error

	// LockByNumber retrieves an order and holds a row lock until the transaction ends.
	LockByNumber(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error)

	// GetLineItem retrieves one line item of an order. A missing item yields (nil, nil).
	GetLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (*model.OrderLineItem, error)

	// UpdateLineItem stores a line item's quantity and total.
	UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error

	// DeleteLineItem removes a line item and reports whether it existed.
	DeleteLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (bool, error)

	// SumLineItems returns the sum of the order's line item totals.
	SumLineItems(ctx context.Context, tx pgx.Tx, orderID int64) (decimal.Decimal, error)

	// UpdateTotals stores the order's delivery cost, order total and grand total.
	UpdateTotals(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByNumber retrieves an order with its line items. A missing order yields (nil, nil).
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// FindMatching returns the order written for a payment, comparing contact fields
	// case-insensitively. No match yields (nil, nil).
	FindMatching(ctx context.Context, match *model.OrderMatch) (*model.Order, error)

	// ListByProfile returns a profile's orders, newest first, without line items.
	ListByProfile(ctx context.Context, profileID int64) ([]model.Order, error)
}

// ProfileRepository defines the interface for user profile data access operations.
type ProfileRepository interface {
	// GetOrCreate returns the profile for username, creating an empty one if needed.
	GetOrCreate(ctx context.Context, username string) (*model.UserProfile, error)

	// GetByUsername retrieves a profile. A missing profile yields (nil, nil).
	GetByUsername(ctx context.Context, username string) (*model.UserProfile, error)

	// UpdateDefaults stores the profile's default delivery information.
	UpdateDefaults(ctx context.Context, profile *model.UserProfile) error
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
