package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	CategorySlug string
	FeaturedOnly bool
	Status       models.ProductStatus
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.price::text, p.stock,
	p.cbd_rate::text, p.thc_rate::text, p.images, p.terpenes, p.effects,
	p.featured, p.status, p.category_id, p.created_at, p.updated_at`

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	images, terpenes, effects, err := encodeProductLists(product)
	if err != nil {
		return err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (
			id, name, slug, description, price, stock, cbd_rate, thc_rate,
			images, terpenes, effects, featured, status, category_id,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW())
		RETURNING created_at, updated_at
	`,
		product.ID, product.Name, product.Slug, product.Description,
		product.Price.String(), product.Stock, product.CBDRate.String(), product.THCRate.String(),
		images, terpenes, effects, product.Featured, product.Status, product.CategoryID,
	)
	return row.Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	images, terpenes, effects, err := encodeProductLists(product)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, stock = $6,
		    cbd_rate = $7, thc_rate = $8, images = $9, terpenes = $10, effects = $11,
		    featured = $12, status = $13, category_id = $14, updated_at = NOW()
		WHERE id = $1
	`,
		product.ID, product.Name, product.Slug, product.Description,
		product.Price.String(), product.Stock, product.CBDRate.String(), product.THCRate.String(),
		images, terpenes, effects, product.Featured, product.Status, product.CategoryID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, productID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`, c.id, c.name, c.slug
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, productID)
	return scanProduct(row)
}

func (s *ProductStore) List(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `, c.id, c.name, c.slug
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE 1=1`
	args := []any{}

	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		query += fmt.Sprintf(" AND c.slug = $%d", len(args))
	}
	if filter.FeaturedOnly {
		query += " AND p.featured = TRUE"
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// DecrementStock reserves quantity units of a product. The guard keeps
// stock from going negative under concurrent orders.
func (s *ProductStore) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (s *ProductStore) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var product models.Product
	var category models.Category
	var price, cbdRate, thcRate string
	var images, terpenes, effects []byte

	err := row.Scan(
		&product.ID, &product.Name, &product.Slug, &product.Description, &price, &product.Stock,
		&cbdRate, &thcRate, &images, &terpenes, &effects,
		&product.Featured, &product.Status, &product.CategoryID, &product.CreatedAt, &product.UpdatedAt,
		&category.ID, &category.Name, &category.Slug,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if product.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if product.CBDRate, err = decimal.NewFromString(cbdRate); err != nil {
		return nil, fmt.Errorf("invalid cbd rate: %w", err)
	}
	if product.THCRate, err = decimal.NewFromString(thcRate); err != nil {
		return nil, fmt.Errorf("invalid thc rate: %w", err)
	}

	if err := decodeJSONList(images, &product.Images); err != nil {
		return nil, fmt.Errorf("invalid images: %w", err)
	}
	if err := decodeJSONList(terpenes, &product.Terpenes); err != nil {
		return nil, fmt.Errorf("invalid terpenes: %w", err)
	}
	if err := decodeJSONList(effects, &product.Effects); err != nil {
		return nil, fmt.Errorf("invalid effects: %w", err)
	}

	product.Category = &category
	return &product, nil
}

func encodeProductLists(product *models.Product) ([]byte, []byte, []byte, error) {
	images, err := json.Marshal(orEmpty(product.Images))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode images: %w", err)
	}
	terpenes, err := json.Marshal(orEmpty(product.Terpenes))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode terpenes: %w", err)
	}
	effects, err := json.Marshal(orEmpty(product.Effects))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode effects: %w", err)
	}
	return images, terpenes, effects, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func decodeJSONList(raw []byte, out *[]string) error {
	if len(raw) == 0 {
		*out = []string{}
		return nil
	}
	return json.Unmarshal(raw, out)
}
