package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `
	p.id, p.category_id, c.name, p.sku, p.name, p.description, p.has_sizes,
	p.price, p.rating, p.image_url, p.image, p.created_at`

var productSortColumns = map[string]string{
	model.SortByName:     "lower(p.name)",
	model.SortByPrice:    "p.price",
	model.SortByRating:   "p.rating",
	model.SortByCategory: "c.name",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List returns the products matching the query.
func (r *productRepository) List(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)

	if q.Search != nil {
		args = append(args, likePattern(*q.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}
	if len(q.Categories) > 0 {
		args = append(args, q.Categories)
		where = append(where, fmt.Sprintf("c.name = ANY($%d)", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT" + productColumns + "\n\tFROM products p\n\tLEFT JOIN categories c ON c.id = p.category_id")
	if len(where) > 0 {
		sb.WriteString("\n\tWHERE " + strings.Join(where, " AND "))
	}

	order := "p.id"
	if column, ok := productSortColumns[q.Sort]; ok {
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		order = fmt.Sprintf("%s %s NULLS LAST, p.id", column, direction)
	}
	sb.WriteString("\n\tORDER BY " + order)

	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		sb.WriteString(fmt.Sprintf("\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("sort", q.Sort).
			Strs("categories", q.Categories).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Categories returns all categories ordered by name.
func (r *productRepository) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, friendly_name FROM categories ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.FriendlyName); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpsertCategory inserts a category or updates the one with the same name.
func (r *productRepository) UpsertCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (name, friendly_name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET friendly_name = EXCLUDED.friendly_name
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query, category.Name, category.FriendlyName).Scan(&category.ID); err != nil {
		r.logger.Error().Err(err).Str("category", category.Name).Msg("failed to upsert category")
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

// UpsertProduct inserts a product or replaces the row with the same ID.
func (r *productRepository) UpsertProduct(ctx context.Context, p *model.Product) error {
	args := []any{p.CategoryID, p.SKU, p.Name, p.Description, p.HasSizes, p.Price, p.Rating, p.ImageURL, p.Image}

	query := `
		INSERT INTO products (category_id, sku, name, description, has_sizes, price, rating, image_url, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	if p.ID > 0 {
		query = `
			INSERT INTO products (category_id, sku, name, description, has_sizes, price, rating, image_url, image, id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				category_id = EXCLUDED.category_id,
				sku = EXCLUDED.sku,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				has_sizes = EXCLUDED.has_sizes,
				price = EXCLUDED.price,
				rating = EXCLUDED.rating,
				image_url = EXCLUDED.image_url,
				image = EXCLUDED.image
			RETURNING id, created_at
		`
		args = append(args, p.ID)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("failed to upsert product")
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// SyncSequences moves the ID sequences past rows inserted with explicit IDs.
func (r *productRepository) SyncSequences(ctx context.Context) error {
	for _, table := range []string{"categories", "products"} {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST(COALESCE(MAX(id), 0), 1)) FROM %s`,
			table, table,
		)
		if _, err := r.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to sync %s sequence: %w", table, err)
		}
	}
	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Category, &p.SKU, &p.Name, &p.Description, &p.HasSizes,
		&p.Price, &p.Rating, &p.ImageURL, &p.Image, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// likePattern escapes LIKE wildcards in term and wraps it for a substring match.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
