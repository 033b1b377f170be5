package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ContentService serves the blog and the newsletter signup.
type ContentService struct {
	posts       repositories.BlogRepository
	subscribers repositories.SubscriberRepository
	notifier    Notifier
	validate    *validator.Validate
	now         func() time.Time
}

func NewContentService(posts repositories.BlogRepository, subscribers repositories.SubscriberRepository, notifier Notifier) *ContentService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ContentService{posts: posts, subscribers: subscribers, notifier: notifier, validate: validator.New(), now: time.Now}
}

func (s *ContentService) ListPosts(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.ListPublished(ctx, s.now())
}

func (s *ContentService) GetPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.posts.GetPublishedBySlug(ctx, slug, s.now())
}

// CreatePost stores a post. Posts without a publish time are drafts.
func (s *ContentService) CreatePost(ctx context.Context, post *models.BlogPost) error {
	post.Slug = strings.ToLower(strings.TrimSpace(post.Slug))
	if !slugPattern.MatchString(post.Slug) {
		return apperr.Validation("slug must be lowercase words separated by dashes")
	}
	if strings.TrimSpace(post.Title) == "" {
		return apperr.Validation("title is required")
	}
	return s.posts.Create(ctx, post)
}

// Subscribe adds an email to the newsletter and sends a welcome message.
func (s *ContentService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperr.Validation("a valid email is required")
	}
	sub := &models.Subscriber{Email: email}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, models.Notification{
		Kind:    models.NotificationNewsletterWelcome,
		To:      sub.Email,
		Subject: "Welcome to our newsletter",
	})
	return sub, nil
}
