package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/bag"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// bagService implements BagService.
type bagService struct {
	productRepo repository.ProductRepository
	sessions    session.Store
	rule        pricing.DeliveryRule
	logger      zerolog.Logger
}

// NewBagService creates a new bag service.
func NewBagService(
	productRepo repository.ProductRepository,
	sessions session.Store,
	rule pricing.DeliveryRule,
	logger zerolog.Logger,
) BagService {
	return &bagService{
		productRepo: productRepo,
		sessions:    sessions,
		rule:        rule,
		logger:      logger.With().Str("service", "bag").Logger(),
	}
}

// Contents resolves the session bag against the catalogue.
func (s *bagService) Contents(ctx context.Context, sessionID string) (*bag.Contents, error) {
	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	contents, err := bag.Summarize(ctx, state, s.productRepo, s.rule)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to summarise bag")
		return nil, err
	}
	return contents, nil
}

// Add increments a product, or one size of it, in the bag.
func (s *bagService) Add(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error) {
	if req.Quantity < 1 || req.Quantity > model.MaxItemQuantity {
		return "", model.ErrInvalidQuantity
	}

	product, size, err := s.resolve(ctx, productID, req.ProductSize)
	if err != nil {
		return "", err
	}

	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return "", err
	}

	itemID := strconv.FormatInt(productID, 10)
	current, existed := state[itemID]
	if size != "" {
		existed = existed && current.SizeQuantity(size) > 0
	}

	next, quantity, err := state.Add(itemID, size, req.Quantity)
	if err != nil {
		return "", err
	}
	if quantity > model.MaxItemQuantity {
		return "", model.ErrInvalidQuantity
	}
	if err := saveBag(ctx, s.sessions, sessionID, next); err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Int64("product_id", productID).
		Str("size", size).
		Int("quantity", quantity).
		Msg("added to bag")

	switch {
	case size != "" && existed:
		return fmt.Sprintf("Updated size %s %s quantity to %d", size, product.Name, quantity), nil
	case size != "":
		return fmt.Sprintf("Added size %s %s to your bag", size, product.Name), nil
	case existed:
		return fmt.Sprintf("Updated %s quantity to %d", product.Name, quantity), nil
	default:
		return fmt.Sprintf("Added %s to your bag", product.Name), nil
	}
}

// Adjust overwrites the quantity of a product or size. Zero removes it.
func (s *bagService) Adjust(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error) {
	if req.Quantity < 0 || req.Quantity > model.MaxItemQuantity {
		return "", model.ErrInvalidQuantity
	}

	product, size, err := s.resolve(ctx, productID, req.ProductSize)
	if err != nil {
		return "", err
	}

	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return "", err
	}

	next, err := state.Adjust(strconv.FormatInt(productID, 10), size, req.Quantity)
	if err != nil {
		return "", err
	}
	if err := saveBag(ctx, s.sessions, sessionID, next); err != nil {
		return "", err
	}

	if req.Quantity == 0 {
		return removedMessage(product, size), nil
	}
	if size != "" {
		return fmt.Sprintf("Updated size %s %s quantity to %d", size, product.Name, req.Quantity), nil
	}
	return fmt.Sprintf("Updated %s quantity to %d", product.Name, req.Quantity), nil
}

// Remove deletes a product, or one size of it, from the bag. A product that
// has left the catalogue is dropped whole so the bag stays usable.
func (s *bagService) Remove(ctx context.Context, sessionID string, productID int64, size string) (string, error) {
	product, size, err := s.resolve(ctx, productID, size)
	stale := errors.Is(err, model.ErrProductNotFound)
	if err != nil && !stale && !errors.Is(err, model.ErrSizeRequired) {
		return "", err
	}

	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return "", err
	}

	itemID := strconv.FormatInt(productID, 10)
	if stale {
		if _, ok := state[itemID]; !ok {
			return "", model.ErrProductNotFound
		}
		size = ""
	}

	next, err := state.Remove(itemID, size)
	if err != nil {
		return "", err
	}
	if err := saveBag(ctx, s.sessions, sessionID, next); err != nil {
		return "", err
	}

	if stale {
		s.logger.Info().Str("session_id", sessionID).Int64("product_id", productID).Msg("removed stale product from bag")
		return fmt.Sprintf("Removed item %d from your bag", productID), nil
	}
	return removedMessage(product, size), nil
}

// resolve looks the product up and normalises the size for it. Sizes sent
// for products without size variants are ignored.
func (s *bagService) resolve(ctx context.Context, productID int64, size string) (*model.Product, string, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to get product")
		return nil, "", fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, "", model.ErrProductNotFound
	}

	if !product.HasSizes {
		return product, "", nil
	}

	size = strings.ToUpper(strings.TrimSpace(size))
	if size == "" {
		return product, "", model.ErrSizeRequired
	}
	if !bag.IsValidSize(size) {
		return nil, "", model.ErrInvalidSize
	}
	return product, size, nil
}

func removedMessage(product *model.Product, size string) string {
	if size != "" {
		return fmt.Sprintf("Removed size %s %s from your bag", size, product.Name)
	}
	return fmt.Sprintf("Removed %s from your bag", product.Name)
}

// loadBag reads and validates the session bag. A missing bag is empty.
func loadBag(ctx context.Context, sessions session.Store, sessionID string) (bag.State, error) {
	data, err := sessions.LoadBag(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bag: %w", err)
	}

	state, err := bag.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

func saveBag(ctx context.Context, sessions session.Store, sessionID string, state bag.State) error {
	encoded, err := state.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode bag: %w", err)
	}
	if err := sessions.SaveBag(ctx, sessionID, []byte(encoded)); err != nil {
		return fmt.Errorf("failed to save bag: %w", err)
	}
	return nil
}
