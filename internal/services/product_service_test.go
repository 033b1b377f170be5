package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20), Stock: 50},
	}

	mockRepo.On("GetAll", "").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(context.Background(), "")

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))
	ctx := context.Background()

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100}

	// Test successful retrieval
	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", "99").Return(nil, apperr.NotFound("product 99 not found")).Once()
	product, err = service.GetProductByID(ctx, "99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "not found")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))
	ctx := context.Background()

	newProduct := &models.Product{Name: "New Product", Price: decimal.NewFromInt(50), Stock: 20}

	// Test successful creation
	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(ctx, newProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test creation failure (e.g., database error)
	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(ctx, newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)

	// Invalid products never reach the repository
	err = service.CreateProduct(ctx, &models.Product{Name: "Free", Price: decimal.Zero, Stock: 1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	mockRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))
	ctx := context.Background()

	updatedProduct := &models.Product{ID: "1", Name: "Product A Updated", Price: decimal.NewFromInt(12), Stock: 95}

	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(ctx, updatedProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	mockRepo.On("Update", updatedProduct).Return(apperr.NotFound("product 1 not found")).Once()
	err = service.UpdateProduct(ctx, updatedProduct)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct(context.Background(), "1")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateCategory(t *testing.T) {
	categories := new(MockCategoryRepository)
	service := services.NewProductService(new(MockProductRepository), categories)
	ctx := context.Background()

	cat := &models.Category{Name: "  Audio "}
	categories.On("Create", cat).Return(nil).Once()
	assert.NoError(t, service.CreateCategory(ctx, cat))
	assert.Equal(t, "Audio", cat.Name)

	err := service.CreateCategory(ctx, &models.Category{Name: " "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	categories.AssertExpectations(t)
}
