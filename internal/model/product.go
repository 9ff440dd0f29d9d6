package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalogue.
type Category struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	FriendlyName *string `json:"friendlyName,omitempty" db:"friendly_name"`
}

// Product represents an item for sale in the catalogue.
type Product struct {
	ID          int64            `json:"id" db:"id"`
	CategoryID  *int64           `json:"categoryId,omitempty" db:"category_id"`
	Category    *string          `json:"category,omitempty" db:"category"`
	SKU         *string          `json:"sku,omitempty" db:"sku"`
	Name        string           `json:"name" db:"name"`
	Description string           `json:"description" db:"description"`
	HasSizes    bool             `json:"hasSizes" db:"has_sizes"`
	Price       decimal.Decimal  `json:"price" db:"price"`
	Rating      *decimal.Decimal `json:"rating,omitempty" db:"rating"`
	ImageURL    *string          `json:"imageUrl,omitempty" db:"image_url"`
	Image       *string          `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
}

// Sort keys accepted by the product listing.
const (
	SortByName     = "name"
	SortByPrice    = "price"
	SortByRating   = "rating"
	SortByCategory = "category"
)

// ProductQuery filters and orders the product listing.
type ProductQuery struct {
	// Search matches name or description case-insensitively when non-nil.
	Search     *string
	Categories []string
	Sort       string
	Descending bool
	Limit      int
	Offset     int
}
