package service

import (
	"context"

	"storefront/internal/bag"
	"storefront/internal/model"
)

// ProductService defines operations for browsing the catalogue.
type ProductService interface {
	// List returns the products matching the query. A present but blank
	// search term fails with model.ErrEmptySearch.
	List(ctx context.Context, query model.ProductQuery) ([]model.Product, error)

	// Get retrieves a single product.
	Get(ctx context.Context, id int64) (*model.Product, error)

	// Categories returns all categories.
	Categories(ctx context.Context) ([]model.Category, error)
}

// BagService defines operations on the session bag. Each mutation returns
// the message shown to the shopper.
type BagService interface {
	Contents(ctx context.Context, sessionID string) (*bag.Contents, error)
	Add(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error)
	Adjust(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error)
	Remove(ctx context.Context, sessionID string, productID int64, size string) (string, error)
}

// CheckoutService defines the synchronous checkout flow.
type CheckoutService interface {
	// Prepare creates a charge intent for the bag's grand total.
	Prepare(ctx context.Context, sessionID, username string) (*CheckoutPage, error)

	// CacheData records the bag, save-info flag and user on the charge intent.
	CacheData(ctx context.Context, sessionID, username string, req model.CacheCheckoutRequest) error

	// Submit validates the form and persists the order with its line items.
	Submit(ctx context.Context, sessionID, username string, req model.CheckoutRequest) (*model.Order, error)

	// Success retrieves a placed order by number.
	Success(ctx context.Context, orderNumber string) (*model.Order, error)
}

// WebhookService verifies and dispatches payment provider events.
type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

// OrderService defines administrative line-item mutations.
type OrderService interface {
	UpdateLineItem(ctx context.Context, orderNumber string, itemID int64, quantity int) (*model.Order, error)
	DeleteLineItem(ctx context.Context, orderNumber string, itemID int64) (*model.Order, error)
}

// ProfileService defines operations on the signed-in user's profile.
type ProfileService interface {
	Get(ctx context.Context, username string) (*ProfilePage, error)
	Update(ctx context.Context, username string, req model.ProfileRequest) (*ProfilePage, error)
	OrderHistory(ctx context.Context, username, orderNumber string) (*PastOrder, error)
}

// CheckoutPage is everything the payment form needs.
type CheckoutPage struct {
	ClientSecret string             `json:"clientSecret"`
	PublicKey    string             `json:"publicKey"`
	Bag          *bag.Contents      `json:"bag"`
	Form         model.CheckoutForm `json:"form"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// WebhookResult is the acknowledgement returned to the payment provider.
type WebhookResult struct {
	EventType string `json:"eventType"`
	Message   string `json:"message"`
}

// ProfilePage is a profile with its order history.
type ProfilePage struct {
	Profile *model.UserProfile `json:"profile"`
	Orders  []model.Order      `json:"orders"`
	Message string             `json:"message,omitempty"`
}

// PastOrder is a previously placed order viewed from the profile.
type PastOrder struct {
	Order   *model.Order `json:"order"`
	Message string       `json:"message"`
}
