package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuthenticationRequired:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindConflict, apperr.KindInsufficientStock:
		return fiber.StatusConflict
	case apperr.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: message})
}

// fail writes err as an error envelope. Causes of internal and upstream
// errors are logged and never sent to the client.
func fail(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindUpstream {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(StatusFor(kind)).JSON(Envelope{
		Success: false,
		Error:   string(kind),
		Message: apperr.MessageOf(err),
	})
}

// bind decodes and validates the request body into v. When it returns false
// the error response has already been written.
func bind(c *fiber.Ctx, validate *validator.Validate, v interface{}) (bool, error) {
	if err := c.BodyParser(v); err != nil {
		log.Printf("Error parsing %s request body: %v", c.Path(), err)
		return false, c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Error:   string(apperr.KindValidation),
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(v); err != nil {
		errorMessages := make(map[string]string)
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Error:   string(apperr.KindValidation),
			Message: "Validation failed",
			Errors:  errorMessages,
		})
	}
	return true, nil
}

// ErrorHandler renders errors that escape a handler, such as unknown routes
// and recovered panics, as an error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	kind := apperr.KindInternal
	message := "internal server error"
	switch {
	case code == fiber.StatusNotFound:
		kind, message = apperr.KindNotFound, "route not found"
	case code == fiber.StatusMethodNotAllowed:
		kind, message = apperr.KindNotFound, "method not allowed"
	case code < fiber.StatusInternalServerError && fe != nil:
		kind, message = apperr.KindValidation, fe.Message
	default:
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(Envelope{Success: false, Error: string(kind), Message: message})
}
