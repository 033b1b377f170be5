package handlers

import (
	"errors"
	"log"

	"storefront/internal/events"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// IdempotencyHeader lets clients retry session creation safely.
const IdempotencyHeader = "Idempotency-Key"

// CheckoutHandler opens payment sessions, reports on them and receives the
// processor's webhook.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	webhooks        payments.WebhookParser
	bus             events.Bus
	validate        *validator.Validate
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, webhooks payments.WebhookParser, bus events.Bus) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		webhooks:        webhooks,
		bus:             bus,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the webhook, which authenticates by signature.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout/webhook", h.HandleWebhook)
}

func (h *CheckoutHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/checkout/create-session", h.CreateSession)
	router.Get("/checkout/session-details", h.SessionDetails)
}

// CreateSessionRequest carries explicit items, or use_cart to check out the
// stored cart.
type CreateSessionRequest struct {
	Items   []services.CheckoutItem `json:"items"`
	UseCart bool                    `json:"use_cart"`
}

func (h *CheckoutHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	id := middleware.IdentityFrom(c)
	key := c.Get(IdempotencyHeader)
	var (
		session *services.CreatedSession
		err     error
	)
	if req.UseCart {
		session, err = h.checkoutService.CreateSessionFromCart(c.UserContext(), id, key)
	} else {
		session, err = h.checkoutService.CreateSession(c.UserContext(), id, req.Items, key)
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, session, "Checkout session created")
}

func (h *CheckoutHandler) SessionDetails(c *fiber.Ctx) error {
	details, err := h.checkoutService.SessionDetails(c.UserContext(), middleware.IdentityFrom(c), c.Query("session_id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, details, "")
}

// HandleWebhook verifies the payload and hands the event to the bus. Any
// non-2xx answer makes the processor deliver it again.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	event, err := h.webhooks.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrIgnoredEvent):
		return respond(c, fiber.StatusOK, nil, "Event ignored")
	case errors.Is(err, payments.ErrInvalidSignature):
		log.Printf("Rejected webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Error:   "VALIDATION_ERROR",
			Message: "invalid signature",
		})
	case err != nil:
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Error:   "VALIDATION_ERROR",
			Message: "malformed event",
		})
	}

	if err := h.bus.Publish(c.UserContext(), *event); err != nil {
		log.Printf("Error publishing payment event %s for session %s: %v", event.EventID, event.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(Envelope{
			Success: false,
			Error:   "INTERNAL_ERROR",
			Message: "event could not be queued",
		})
	}
	return respond(c, fiber.StatusOK, fiber.Map{"received": true}, "")
}
