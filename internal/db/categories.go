package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type CategoryStore struct {
	pool *pgxpool.Pool
}

func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, slug, description, image, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING created_at, updated_at
	`, category.ID, category.Name, category.Slug, category.Description, category.Image)
	return row.Scan(&category.CreatedAt, &category.UpdatedAt)
}

func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, image, created_at, updated_at
		FROM categories WHERE slug = $1
	`, slug).Scan(&category.ID, &category.Name, &category.Slug, &category.Description,
		&category.Image, &category.CreatedAt, &category.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns all categories ordered by name with their product counts.
func (s *CategoryStore) List(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.image, c.created_at, c.updated_at,
		       COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		var count int64
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.Description,
			&category.Image, &category.CreatedAt, &category.UpdatedAt, &count); err != nil {
			return nil, err
		}
		category.ProductCount = int(count)
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}
