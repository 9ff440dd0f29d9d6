// Command seed imports the category and product fixtures into the catalogue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	categoriesFile := flag.String("categories", "categories.jsonl.gz", "categories fixture; the S3 key is the configured prefix plus this name")
	productsFile := flag.String("products", "products.jsonl.gz", "products fixture; the S3 key is the configured prefix plus this name")
	writeSample := flag.String("write-sample", "", "write sample fixtures into this directory and exit")
	flag.Parse()

	if *writeSample != "" {
		return writeSamples(*writeSample)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize fixture loader with S3 and local fallback
	fileLoader := catalog.NewFileLoader(logger)
	var s3Loader catalog.Loader
	if cfg.S3.Enabled {
		s3Loader, err = catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for fixture files (S3 disabled)")
	}
	loader := catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	importer := catalog.NewImporter(repository.NewProductRepository(pool, logger), loader, logger)
	summary, err := importer.Import(ctx, *categoriesFile, *productsFile)
	if err != nil {
		return fmt.Errorf("failed to import catalogue: %w", err)
	}

	logger.Info().
		Int("categories", summary.Categories).
		Int("products", summary.Products).
		Msg("catalogue imported")
	return nil
}

func writeSamples(dir string) error {
	categories := filepath.Join(dir, "categories.jsonl.gz")
	if err := catalog.WriteFixture(categories, catalog.SampleCategories()); err != nil {
		return fmt.Errorf("failed to write %s: %w", categories, err)
	}
	products := filepath.Join(dir, "products.jsonl.gz")
	if err := catalog.WriteFixture(products, catalog.SampleProducts()); err != nil {
		return fmt.Errorf("failed to write %s: %w", products, err)
	}

	fmt.Printf("Created %s and %s\n", categories, products)
	return nil
}
