package catalog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// WriteFixture writes records as a gzipped JSON-lines file, creating parent
// directories as needed.
func WriteFixture[T any](path string, records []T) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(file)
	encoder := json.NewEncoder(gzipWriter)
	for i := range records {
		if err := encoder.Encode(records[i]); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

// SampleCategories is a small categories fixture for local development.
func SampleCategories() []CategoryRecord {
	return []CategoryRecord{
		{Name: "bags", FriendlyName: strPtr("Bags")},
		{Name: "clothing", FriendlyName: strPtr("Clothing")},
		{Name: "kitchen", FriendlyName: strPtr("Kitchen")},
	}
}

// SampleProducts is a products fixture matching SampleCategories.
func SampleProducts() []ProductRecord {
	rating := decimal.RequireFromString("4.5")
	return []ProductRecord{
		{
			ID:          1,
			Category:    "bags",
			SKU:         strPtr("BG-0001"),
			Name:        "Canvas Tote",
			Description: "Heavy cotton tote with an inside pocket.",
			Price:       decimal.RequireFromString("25.00"),
			Rating:      &rating,
			Image:       strPtr("canvas-tote.jpg"),
		},
		{
			ID:          2,
			Category:    "clothing",
			SKU:         strPtr("CL-0002"),
			Name:        "Linen Shirt",
			Description: "Relaxed fit shirt in washed linen.",
			HasSizes:    true,
			Price:       decimal.RequireFromString("12.50"),
			Image:       strPtr("linen-shirt.jpg"),
		},
		{
			ID:          3,
			Category:    "kitchen",
			SKU:         strPtr("KT-0003"),
			Name:        "Enamel Mug",
			Description: "Camp mug with a rolled rim.",
			Price:       decimal.RequireFromString("8.99"),
		},
	}
}

func strPtr(s string) *string {
	return &s
}
