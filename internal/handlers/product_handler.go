package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.GetAllProducts)
	router.Get("/products/:id", h.GetProductByID)
	router.Get("/categories", h.GetCategories)
}

// RegisterProtectedRoutes registers the admin catalog routes.
func (h *ProductHandler) RegisterProtectedRoutes(router fiber.Router) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	router.Post("/products", adminOnly, h.CreateProduct)
	router.Put("/products/:id", adminOnly, h.UpdateProduct)
	router.Delete("/products/:id", adminOnly, h.DeleteProduct)
	router.Post("/categories", adminOnly, h.CreateCategory)
}

// ProductRequest is the body for product create and update.
type ProductRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	CategoryID  *string         `json:"category_id"`
}

func (r ProductRequest) product() *models.Product {
	return &models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
	}
}

func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.productService.GetAllProducts(c.UserContext(), c.Query("category_id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, products, "")
}

func (h *ProductHandler) GetProductByID(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, product, "")
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	product := req.product()
	if err := h.productService.CreateProduct(c.UserContext(), product); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, product, "Product created")
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	product := req.product()
	product.ID = c.Params("id")
	if err := h.productService.UpdateProduct(c.UserContext(), product); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, product, "Product updated")
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Product deleted")
}

func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.productService.GetCategories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, categories, "")
}

// CategoryRequest is the body for category creation.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (h *ProductHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	category := &models.Category{Name: req.Name, Description: req.Description}
	if err := h.productService.CreateCategory(c.UserContext(), category); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, category, "Category created")
}
