package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler manages the caller's address book.
type AddressHandler struct {
	addressService *services.AddressService
	validate       *validator.Validate
}

func NewAddressHandler(addressService *services.AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService, validate: validator.New()}
}

func (h *AddressHandler) RegisterProtectedRoutes(router fiber.Router) {
	addresses := router.Group("/addresses")
	addresses.Get("/", h.List)
	addresses.Post("/", h.Create)
	addresses.Put("/:id", h.Update)
	addresses.Delete("/:id", h.Delete)
	addresses.Put("/:id/default", h.SetDefault)
}

// AddressRequest is the body for address create and update. IsDefault is
// only honoured on create.
type AddressRequest struct {
	Type          string `json:"type" validate:"required"`
	Label         string `json:"label" validate:"max=100"`
	RecipientName string `json:"recipient_name" validate:"max=200"`
	Line1         string `json:"line1" validate:"required,max=255"`
	Line2         string `json:"line2" validate:"max=255"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"max=100"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
	Country       string `json:"country" validate:"required,len=2"`
	Phone         string `json:"phone" validate:"max=30"`
	IsDefault     bool   `json:"is_default"`
}

func (r AddressRequest) address() *models.Address {
	return &models.Address{
		Type:          r.Type,
		Label:         r.Label,
		RecipientName: r.RecipientName,
		Line1:         r.Line1,
		Line2:         r.Line2,
		City:          r.City,
		State:         r.State,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
		Phone:         r.Phone,
		IsDefault:     r.IsDefault,
	}
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	addresses, err := h.addressService.List(c.UserContext(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, addresses, "")
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var req AddressRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	addr := req.address()
	if err := h.addressService.Create(c.UserContext(), middleware.IdentityFrom(c).UserID, addr); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, addr, "Address created")
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	var req AddressRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	addr := req.address()
	addr.ID = c.Params("id")
	if err := h.addressService.Update(c.UserContext(), middleware.IdentityFrom(c).UserID, addr); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, addr, "Address updated")
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	if err := h.addressService.Delete(c.UserContext(), middleware.IdentityFrom(c).UserID, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Address deleted")
}

// SetDefault makes the address the only default of its type.
func (h *AddressHandler) SetDefault(c *fiber.Ctx) error {
	addr, err := h.addressService.SetDefault(c.UserContext(), middleware.IdentityFrom(c).UserID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, addr, "Default address updated")
}
