package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

// thcLegalLimit is the EU ceiling for THC content, in percent.
var thcLegalLimit = decimal.RequireFromString("0.3")

type catalogProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, productID uuid.UUID) error
	GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter db.ProductFilter) ([]*models.Product, error)
}

type catalogCategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

// CatalogService manages products and categories.
type CatalogService struct {
	products   catalogProductStore
	categories catalogCategoryStore
	logger     *slog.Logger
}

func NewCatalogService(products catalogProductStore, categories catalogCategoryStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CBDRate     decimal.Decimal
	THCRate     decimal.Decimal
	Images      []string
	Terpenes    []string
	Effects     []string
	Featured    bool
	Status      models.ProductStatus
	CategoryID  uuid.UUID
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if input.CategoryID == uuid.Nil {
		return nil, validationErrorf("category is required")
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}
	status := input.Status
	if status == "" {
		status = models.ProductActive
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CBDRate:     input.CBDRate,
		THCRate:     input.THCRate,
		Images:      input.Images,
		Terpenes:    input.Terpenes,
		Effects:     input.Effects,
		Featured:    input.Featured,
		Status:      status,
		CategoryID:  input.CategoryID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logging.FromContext(ctx, s.logger).Info("product created",
		slog.String("product_id", product.ID.String()),
		slog.String("slug", product.Slug))
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	if input.Slug != "" {
		product.Slug = input.Slug
	}
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.CBDRate = input.CBDRate
	product.THCRate = input.THCRate
	product.Images = input.Images
	product.Terpenes = input.Terpenes
	product.Effects = input.Effects
	product.Featured = input.Featured
	if input.Status != "" {
		product.Status = input.Status
	}
	if input.CategoryID != uuid.Nil {
		product.CategoryID = input.CategoryID
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return s.products.Delete(ctx, productID)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, productID)
}

// ListProducts returns active products only. Admin surfaces use
// ListAllProducts which does not filter by status.
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug string, featuredOnly bool) ([]*models.Product, error) {
	return s.products.List(ctx, db.ProductFilter{
		CategorySlug: categorySlug,
		FeaturedOnly: featuredOnly,
		Status:       models.ProductActive,
	})
}

func (s *CatalogService) ListAllProducts(ctx context.Context) ([]*models.Product, error) {
	return s.products.List(ctx, db.ProductFilter{})
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	if slug == "" {
		return nil, validationErrorf("category slug is required")
	}
	return s.categories.GetBySlug(ctx, slug)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, description, image string) (*models.Category, error) {
	if name == "" {
		return nil, validationErrorf("category name is required")
	}

	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		Image:       image,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func validateProductInput(input ProductInput) error {
	if input.Name == "" {
		return validationErrorf("product name is required")
	}
	if !input.Price.IsPositive() {
		return validationErrorf("price must be positive, got %s", input.Price)
	}
	if input.Stock < 0 {
		return validationErrorf("stock cannot be negative")
	}
	if input.CBDRate.IsNegative() {
		return validationErrorf("cbd rate cannot be negative")
	}
	if input.THCRate.IsNegative() || input.THCRate.GreaterThan(thcLegalLimit) {
		return validationErrorf("thc rate must be between 0 and %s%%", thcLegalLimit)
	}
	return nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(name string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
