// Package catalog imports category and product fixtures into the catalogue.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// Records holds the raw JSON documents of a fixture file, one per line.
type Records [][]byte

// Loader defines the interface for loading fixture files.
type Loader interface {
	// Load reads a gzipped JSON-lines fixture file.
	Load(ctx context.Context, name string) (Records, error)
}

// Store is the subset of the product repository the importer writes through.
type Store interface {
	UpsertCategory(ctx context.Context, category *model.Category) error
	UpsertProduct(ctx context.Context, product *model.Product) error
	SyncSequences(ctx context.Context) error
}

// CategoryRecord is one line of the categories fixture.
type CategoryRecord struct {
	Name         string  `json:"name"`
	FriendlyName *string `json:"friendly_name"`
}

// ProductRecord is one line of the products fixture.
type ProductRecord struct {
	ID          int64            `json:"pk"`
	Category    string           `json:"category"`
	SKU         *string          `json:"sku"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	HasSizes    bool             `json:"has_sizes"`
	Price       decimal.Decimal  `json:"price"`
	Rating      *decimal.Decimal `json:"rating"`
	ImageURL    *string          `json:"image_url"`
	Image       *string          `json:"image"`
}
