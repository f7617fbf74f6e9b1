package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
)

type ListProductsParams struct {
	Offset int64
	Limit  int64
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	// GetProductBySku returns the product with the given sku. The boolean is
	// false when no such product exists.
	GetProductBySku(ctx context.Context, sku string) (model.Product, bool, error)
	// CreateProduct stages an insert on the current session. It returns false
	// without error when the sku already exists.
	CreateProduct(ctx context.Context, product model.Product) (bool, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	SearchProducts(ctx context.Context, filter model.SearchFilter) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

const productColumns = `id, sku, name, brand, color, size, mrp, price, quantity, created_at`

type productRow struct {
	ID        uuid.UUID `db:"id"`
	Sku       string    `db:"sku"`
	Name      string    `db:"name"`
	Brand     string    `db:"brand"`
	Color     *string   `db:"color"`
	Size      *string   `db:"size"`
	Mrp       float64   `db:"mrp"`
	Price     float64   `db:"price"`
	Quantity  *int32    `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
}

func (r productRepository) GetProductBySku(ctx context.Context, sku string) (model.Product, bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku = @sku
	`, pgx.NamedArgs{"sku": sku})
	if err != nil {
		return model.Product{}, false, fmt.Errorf("query product by sku: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, fmt.Errorf("collect product: %w", err)
	}

	return rowToModelProduct(row), true, nil
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) (bool, error) {
	var quantity *int32
	if product.Quantity != nil {
		if *product.Quantity > math.MaxInt32 || *product.Quantity < math.MinInt32 {
			return false, fmt.Errorf("quantity out of range: %d", *product.Quantity)
		}
		q := int32(*product.Quantity) //nolint:gosec
		quantity = &q
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (@id, @sku, @name, @brand, @color, @size, @mrp, @price, @quantity, @created_at)
		ON CONFLICT (sku) DO NOTHING
	`, pgx.NamedArgs{
		"id":         product.ID,
		"sku":        product.Sku,
		"name":       product.Name,
		"brand":      product.Brand,
		"color":      product.Color,
		"size":       product.Size,
		"mrp":        product.Mrp,
		"price":      product.Price,
		"quantity":   quantity,
		"created_at": product.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("insert product: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id
		LIMIT @limit OFFSET @offset
	`, pgx.NamedArgs{
		"limit":  params.Limit,
		"offset": params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	return collectProducts(rows)
}

func (r productRepository) SearchProducts(ctx context.Context, filter model.SearchFilter) ([]model.Product, error) {
	query, args := buildSearchQuery(filter)

	rows, err := r.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	products := make([]model.Product, 0, len(collected))
	for _, row := range collected {
		products = append(products, rowToModelProduct(row))
	}

	return products, nil
}

func rowToModelProduct(row productRow) model.Product {
	var quantity *int
	if row.Quantity != nil {
		q := int(*row.Quantity)
		quantity = &q
	}

	return model.Product{
		ID:        row.ID,
		Sku:       row.Sku,
		Name:      row.Name,
		Brand:     row.Brand,
		Color:     row.Color,
		Size:      row.Size,
		Mrp:       row.Mrp,
		Price:     row.Price,
		Quantity:  quantity,
		CreatedAt: row.CreatedAt,
	}
}
