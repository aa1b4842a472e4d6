package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

const productColumns = `id, name, price, COALESCE(description, ''), COALESCE(image, ''), stock, COALESCE(category, ''), created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner, product *models.Product) error {
	return row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.Image,
		&product.Stock,
		&product.Category,
		&product.CreatedAt,
	)
}

// ProductFilter narrows the catalog listing. PageSize 0 returns every match.
type ProductFilter struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

func (f ProductFilter) cacheKey() string {
	return fmt.Sprintf("products:q=%q:c=%q:p=%d:s=%d", strings.ToLower(f.Search), f.Category, f.Page, f.PageSize)
}

func (s *Store) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (name, price, description, image, stock, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	row := s.db.QueryRowContext(ctx, query, in.Name, in.Price, in.Description, in.Image, in.Stock, in.Category)
	if err := scanProduct(row, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidateCatalog(ctx)
	return product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET name = $1, price = $2, description = $3, image = $4, stock = $5, category = $6
		WHERE id = $7
		RETURNING ` + productColumns

	row := s.db.QueryRowContext(ctx, query, in.Name, in.Price, in.Description, in.Image, in.Stock, in.Category, id)
	if err := scanProduct(row, product); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCatalog(ctx)
	return product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	var deleted int64
	err := s.db.QueryRowContext(ctx, `DELETE FROM products WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrProductNotFound
		}
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := fmt.Sprintf("product:%d", id)
	product := &models.Product{}
	fill, hit := s.cacheGet(ctx, key, product)
	if hit {
		return product, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	if err := scanProduct(s.db.QueryRowContext(ctx, query, id), product); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.cacheSet(ctx, fill, key, product)
	return product, nil
}

// ListProducts returns matching products ordered by id.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) (*OffsetPage, error) {
	if filter.PageSize > 0 && filter.Page < 1 {
		filter.Page = 1
	}

	key := filter.cacheKey()
	var cached productPage
	fill, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return cached.offsetPage(filter), nil
	}

	where := `
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\')
		  AND ($2 = '' OR category = $2)`
	search := escapeLike(filter.Search)

	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, search, filter.Category).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY id`
	args := []interface{}{search, filter.Category}
	if filter.PageSize > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	page := productPage{Products: products, Total: total}
	s.cacheSet(ctx, fill, key, page)

	return page.offsetPage(filter), nil
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// ListCategories returns the distinct non-empty categories, sorted.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	fill, hit := s.cacheGet(ctx, "categories", &categories)
	if hit {
		return categories, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM products
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	s.cacheSet(ctx, fill, "categories", categories)
	return categories, nil
}

// ReserveStock locks the product row for the rest of tx and checks that
// quantity units are available. Failures are reported as *StockError.
func ReserveStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	if err := scanProduct(tx.QueryRowContext(ctx, query, productID), product); err != nil {
		if err == sql.ErrNoRows {
			return nil, &database.StockError{ProductID: productID, Err: database.ErrProductNotFound}
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	if product.Stock < quantity {
		return nil, &database.StockError{ProductID: productID, Name: product.Name, Err: database.ErrInsufficientStock}
	}

	return product, nil
}

func DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrInsufficientStock
	}

	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
