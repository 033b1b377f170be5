package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the caller's cart.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validate: validator.New()}
}

// RegisterProtectedRoutes registers the cart routes. Every route needs an identity.
func (h *CartHandler) RegisterProtectedRoutes(router fiber.Router) {
	cart := router.Group("/cart")
	cart.Get("/", h.GetCart)
	cart.Post("/add", h.AddItem)
	cart.Post("/remove", h.RemoveItem)
	cart.Post("/clear", h.Clear)
	cart.Put("/items/:productId", h.UpdateItem)
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.cartService.GetCart(c.UserContext(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "")
}

// AddItem adds quantity to a line, creating the cart on first use.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.cartService.AddItem(c.UserContext(), middleware.IdentityFrom(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "Item added to cart")
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	var req RemoveItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.cartService.RemoveItem(c.UserContext(), middleware.IdentityFrom(c).UserID, req.ProductID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "Item removed from cart")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart, err := h.cartService.Clear(c.UserContext(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "Cart cleared")
}

// UpdateItem sets the exact quantity of a line. Zero removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.cartService.UpdateItem(c.UserContext(), middleware.IdentityFrom(c).UserID, c.Params("productId"), req.Quantity)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "Cart updated")
}
