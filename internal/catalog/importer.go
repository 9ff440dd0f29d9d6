package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"storefront/internal/model"
)

// Summary reports what an import wrote.
type Summary struct {
	Categories int
	Products   int
}

// Importer upserts fixture records into the catalogue.
type Importer struct {
	store  Store
	loader Loader
	logger zerolog.Logger
}

// NewImporter creates a new catalogue importer.
func NewImporter(store Store, loader Loader, logger zerolog.Logger) *Importer {
	return &Importer{
		store:  store,
		loader: loader,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import loads the categories fixture, then the products fixture, and upserts
// both. Every product must name a category present in the categories fixture
// or leave it blank.
func (i *Importer) Import(ctx context.Context, categoriesFile, productsFile string) (*Summary, error) {
	categoryRecords, err := i.loader.Load(ctx, categoriesFile)
	if err != nil {
		return nil, err
	}
	productRecords, err := i.loader.Load(ctx, productsFile)
	if err != nil {
		return nil, err
	}

	categoryIDs := make(map[string]int64, len(categoryRecords))
	for n, raw := range categoryRecords {
		var rec CategoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("invalid category on line %d: %w", n+1, err)
		}
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return nil, fmt.Errorf("invalid category on line %d: name is required", n+1)
		}

		category := &model.Category{Name: name, FriendlyName: rec.FriendlyName}
		if err := i.store.UpsertCategory(ctx, category); err != nil {
			return nil, fmt.Errorf("failed to import category %q: %w", name, err)
		}
		categoryIDs[name] = category.ID
	}

	for n, raw := range productRecords {
		var rec ProductRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("invalid product on line %d: %w", n+1, err)
		}

		product, err := rec.toProduct(categoryIDs)
		if err != nil {
			return nil, fmt.Errorf("invalid product on line %d: %w", n+1, err)
		}
		if err := i.store.UpsertProduct(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to import product %q: %w", product.Name, err)
		}
	}

	if err := i.store.SyncSequences(ctx); err != nil {
		return nil, fmt.Errorf("failed to sync sequences: %w", err)
	}

	summary := &Summary{Categories: len(categoryRecords), Products: len(productRecords)}
	i.logger.Info().
		Int("categories", summary.Categories).
		Int("products", summary.Products).
		Msg("catalog imported")

	return summary, nil
}

func (r *ProductRecord) toProduct(categoryIDs map[string]int64) (*model.Product, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if r.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}

	product := &model.Product{
		ID:          r.ID,
		SKU:         r.SKU,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		HasSizes:    r.HasSizes,
		Price:       r.Price,
		Rating:      r.Rating,
		ImageURL:    r.ImageURL,
		Image:       r.Image,
	}

	if category := strings.TrimSpace(r.Category); category != "" {
		id, ok := categoryIDs[category]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", category)
		}
		product.CategoryID = &id
		product.Category = &category
	}

	return product, nil
}
