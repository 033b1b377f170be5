package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *services.OrderService
	validate     *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validate:     validator.New(),
	}
}

// RegisterProtectedRoutes registers the order routes.
func (h *OrderHandler) RegisterProtectedRoutes(router fiber.Router) {
	orders := router.Group("/orders")
	orders.Get("/", h.GetOrders)
	orders.Get("/:id", h.GetOrderByID)
	orders.Patch("/:id/status", middleware.RequireRole(models.RoleAdmin), h.UpdateOrderStatus)
}

// GetOrders lists the caller's orders, or every order for admins.
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.GetOrders(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, orders, "")
}

func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrderByID(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, order, "")
}

func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req services.StatusUpdate
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.orderService.UpdateOrderStatus(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, order, "Order status updated")
}
