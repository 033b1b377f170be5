package services

import (
	"context"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to products and categories.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
	}
}

// GetAllProducts retrieves all products, optionally within one category.
func (s *ProductService) GetAllProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	return s.repo.GetAll(ctx, categoryID)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.GetAll(ctx)
}

func (s *ProductService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return apperr.Validation("category name is required")
	}
	return s.categories.Create(ctx, category)
}

func checkProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("product name is required")
	}
	if !p.Price.IsPositive() {
		return apperr.Validation("product price must be positive")
	}
	if p.Stock < 0 {
		return apperr.Validation("product stock cannot be negative")
	}
	return nil
}
