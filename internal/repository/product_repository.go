package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// ProductRepository provides data access for products, variants and stock.
type ProductRepository struct {
	pool PoolInterface
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// NewProductRepositoryWithPool creates a ProductRepository with a custom pool
// interface. This is primarily used for testing.
func NewProductRepositoryWithPool(pool PoolInterface) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Insert persists a product with its variants and tag links in one transaction.
func (r *ProductRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.Product) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO products (id, name, description, price, discount, category_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.Price, p.Discount, p.CategoryID, p.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for _, v := range p.Variants {
		_, err = tx.Exec(ctx,
			`INSERT INTO variants (id, product_id, color_id, size_id, stock, image)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			v.ID, p.ID, v.ColorID, v.SizeID, v.Stock, v.Image)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}

	for _, tagID := range p.Tags {
		_, err = tx.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)`, p.ID, tagID)
		if err != nil {
			return fmt.Errorf("insert product tag: %w", err)
		}
	}
	return nil
}

// Update rewrites a product's fields, variants and tag links in one
// transaction. Variants are upserted on their (product, color, size) key so
// existing variant ids, and the cart rows referencing them, survive an edit.
// Returns service.ErrProductNotFound if the id does not exist.
func (r *ProductRepository) Update(ctx context.Context, tx database.TxQuerier, p *model.Product) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, discount = $5,
		 category_id = $6, is_active = $7 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Discount, p.CategoryID, p.IsActive)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrProductNotFound
	}

	for _, v := range p.Variants {
		_, err = tx.Exec(ctx,
			`INSERT INTO variants (id, product_id, color_id, size_id, stock, image)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (product_id, color_id, size_id)
			 DO UPDATE SET stock = EXCLUDED.stock, image = EXCLUDED.image`,
			v.ID, p.ID, v.ColorID, v.SizeID, v.Stock, v.Image)
		if err != nil {
			return fmt.Errorf("upsert variant: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear product tags: %w", err)
	}
	for _, tagID := range p.Tags {
		_, err = tx.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)`, p.ID, tagID)
		if err != nil {
			return fmt.Errorf("insert product tag: %w", err)
		}
	}
	return nil
}

// Delete removes a product. Variant and tag rows go with it via cascade.
// Returns service.ErrProductNotFound if the id does not exist.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrProductNotFound
	}
	return nil
}

const productColumns = `p.id, p.name, p.description, p.price, p.discount, p.category_id, c.name,
	p.sold, p.is_active, p.created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Discount,
		&p.CategoryID,
		&p.Category,
		&p.Sold,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a product with its variants and tags.
// Returns nil, nil if the product is not found.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	variants, err := r.variantsFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	rows, err := r.pool.Query(ctx,
		`SELECT t.name FROM product_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.product_id = $1`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get product tags %s: %w", p.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan product tag: %w", err)
		}
		p.Tags = append(p.Tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product tags: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) variantsFor(ctx context.Context, productID string) ([]model.Variant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.product_id, v.color_id, v.size_id, co.name, s.name, v.stock, v.image
		 FROM variants v
		 JOIN colors co ON co.id = v.color_id
		 JOIN sizes s ON s.id = v.size_id
		 WHERE v.product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("get variants for %s: %w", productID, err)
	}
	defer rows.Close()

	variants := []model.Variant{}
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.ColorID, &v.SizeID, &v.ColorName, &v.SizeName, &v.Stock, &v.Image); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

// GetVariant retrieves one variant with its product pricing joined in.
// Returns nil, nil if the variant is not found.
func (r *ProductRepository) GetVariant(ctx context.Context, variantID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.pool.QueryRow(ctx,
		`SELECT v.product_id, v.id, p.name, p.price, p.discount, v.image, co.name, s.name, v.stock, p.is_active
		 FROM variants v
		 JOIN products p ON p.id = v.product_id
		 JOIN colors co ON co.id = v.color_id
		 JOIN sizes s ON s.id = v.size_id
		 WHERE v.id = $1`, variantID).Scan(
		&item.ProductID, &item.VariantID, &item.Name, &item.Price, &item.Discount,
		&item.Image, &item.Color, &item.Size, &item.Stock, &item.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant %s: %w", variantID, err)
	}
	return &item, nil
}

// List returns a page of products, newest first, optionally filtered by
// category id and a case-insensitive name search. Variants are loaded per
// product.
func (r *ProductRepository) List(ctx context.Context, search, categoryID string, activeOnly bool, limit, offset int) ([]model.Product, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM products p
		 WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR p.category_id::text = $2)
		   AND (NOT $3 OR p.is_active)`, search, categoryID, activeOnly).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR p.category_id::text = $2)
		   AND (NOT $3 OR p.is_active)
		 ORDER BY p.created_at DESC
		 LIMIT $4 OFFSET $5`, search, categoryID, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	for i := range products {
		variants, err := r.variantsFor(ctx, products[i].ID)
		if err != nil {
			return nil, 0, err
		}
		products[i].Variants = variants
	}
	return products, total, nil
}

// TopSelling returns the n best-selling active products.
func (r *ProductRepository) TopSelling(ctx context.Context, n int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE p.is_active
		 ORDER BY p.sold DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	return collectProducts(rows)
}

// TopDiscounted returns the n active products with the largest storefront discount.
func (r *ProductRepository) TopDiscounted(ctx context.Context, n int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE p.is_active
		 ORDER BY p.discount DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top discounted products: %w", err)
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()
	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// AdjustStock changes a variant's stock by delta inside the caller's
// transaction. Negative deltas are conditional on sufficient stock; returns
// service.ErrInsufficientStock when the variant cannot cover the decrement.
func (r *ProductRepository) AdjustStock(ctx context.Context, tx database.TxQuerier, variantID string, delta int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE variants SET stock = stock + $2
		 WHERE id = $1 AND stock + $2 >= 0`, variantID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock for %s: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrInsufficientStock
	}
	return nil
}

// AddSold bumps a product's sold counter inside the caller's transaction.
func (r *ProductRepository) AddSold(ctx context.Context, tx database.TxQuerier, productID string, qty int) error {
	_, err := tx.Exec(ctx,
		`UPDATE products SET sold = sold + $2 WHERE id = $1`, productID, qty)
	if err != nil {
		return fmt.Errorf("add sold for %s: %w", productID, err)
	}
	return nil
}
