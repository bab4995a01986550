package repository

import (
	"context"
	"fmt"

	"productview/catalog/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id       BIGINT PRIMARY KEY,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	price    NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
	image    TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	in_stock BOOLEAN NOT NULL
)`

type ProductRepository interface {
	EnsureSchema(ctx context.Context) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SaveProducts(ctx context.Context, products []domain.Product) error
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{
		db: db,
	}
}

type productRow struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Price    float64 `db:"price"`
	Image    string  `db:"image"`
	Category string  `db:"category"`
	InStock  bool    `db:"in_stock"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Image:    r.Image,
		Category: r.Category,
		InStock:  r.InStock,
	}
}

func (r *productRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// ListProducts returns the catalog in insertion order.
func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
	SELECT id, name, price::float8 AS price, image, category, in_stock
	FROM products
	ORDER BY position, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	products := make([]domain.Product, len(records))
	for i, record := range records {
		products[i] = record.toDomain()
	}
	return products, nil
}

// SaveProducts upserts products, recording their order as the catalog order.
func (r *productRepository) SaveProducts(ctx context.Context, products []domain.Product) error {
	query := `
	INSERT INTO products (id, position, name, price, image, category, in_stock)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id)
	DO UPDATE SET position = $2, name = $3, price = $4, image = $5, category = $6, in_stock = $7`

	batch := &pgx.Batch{}
	for i, p := range products {
		batch.Queue(query, p.ID, i, p.Name, p.Price, p.Image, p.Category, p.InStock)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}

	return nil
}
