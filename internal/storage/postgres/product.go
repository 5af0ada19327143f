package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/minishop/internal/domain/product"
)

const (
	productColumns = `id, name, description, category, price, stock, is_active, created_at, updated_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_active)
		ORDER BY created_at DESC, id`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, category = $4, price = $5,
		    stock = $6, is_active = $7, updated_at = $8
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	adjustStockSQL = `UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING ` + productColumns
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the filter, newest first.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, f.Category, f.ActiveOnly)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.IsActive,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert product %q", p.ID)
	}
	return nil
}

// Update overwrites all mutable columns of a product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AdjustStock atomically adds delta to a product's stock. The conditional
// update refuses to take stock below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return nil, errors.Wrapf(err, "adjust stock for %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(err, "adjust stock for %q", id)
		}
		// Zero rows: either the product is missing or the delta would go
		// negative. Disambiguate with a plain read.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, product.ErrStockNegative
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
