package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

var validSorts = map[string]bool{
	model.SortByName:     true,
	model.SortByPrice:    true,
	model.SortByRating:   true,
	model.SortByCategory: true,
}

// List returns the products matching the query.
func (s *productService) List(ctx context.Context, query model.ProductQuery) ([]model.Product, error) {
	if query.Search != nil {
		term := strings.TrimSpace(*query.Search)
		if term == "" {
			return nil, model.ErrEmptySearch
		}
		query.Search = &term
	}
	if !validSorts[query.Sort] {
		query.Sort = ""
	}
	if query.Limit < 0 {
		query.Limit = 0
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	products, err := s.productRepo.List(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("sort", query.Sort).Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Strs("categories", query.Categories).
		Msg("retrieved products")

	return products, nil
}

// Get retrieves a single product by ID.
func (s *productService) Get(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Categories returns all categories.
func (s *productService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get categories")
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}
