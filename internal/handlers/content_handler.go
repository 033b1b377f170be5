package handlers

import (
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ContentHandler serves the blog and the newsletter signup.
type ContentHandler struct {
	contentService *services.ContentService
	validate       *validator.Validate
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService, validate: validator.New()}
}

func (h *ContentHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/blog", h.ListPosts)
	router.Get("/blog/:slug", h.GetPost)
	router.Post("/newsletter/subscribe", h.Subscribe)
}

func (h *ContentHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/blog", middleware.RequireRole(models.RoleAdmin), h.CreatePost)
}

type PostRequest struct {
	Slug        string     `json:"slug" validate:"required,max=200"`
	Title       string     `json:"title" validate:"required,max=255"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"published_at"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required"`
}

func (h *ContentHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.contentService.ListPosts(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, posts, "")
}

func (h *ContentHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.contentService.GetPost(c.UserContext(), c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, post, "")
}

func (h *ContentHandler) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	post := &models.BlogPost{
		Slug:        req.Slug,
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		Body:        req.Body,
		Author:      middleware.IdentityFrom(c).Email,
		PublishedAt: req.PublishedAt,
	}
	if err := h.contentService.CreatePost(c.UserContext(), post); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, post, "Post created")
}

func (h *ContentHandler) Subscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	sub, err := h.contentService.Subscribe(c.UserContext(), req.Email)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, sub, "Subscribed")
}
