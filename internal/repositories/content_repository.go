package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogRepository defines the interface for blog post data access.
type BlogRepository interface {
	ListPublished(ctx context.Context, now time.Time) ([]models.BlogPost, error)
	GetPublishedBySlug(ctx context.Context, slug string, now time.Time) (*models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
}

// SubscriberRepository defines the interface for newsletter signups.
type SubscriberRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
}

type GORMBlogRepository struct {
	db *gorm.DB
}

func NewGORMBlogRepository(db *gorm.DB) *GORMBlogRepository {
	return &GORMBlogRepository{db: db}
}

func (r *GORMBlogRepository) ListPublished(ctx context.Context, now time.Time) ([]models.BlogPost, error) {
	posts := []models.BlogPost{}
	err := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at <= ?", now).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (r *GORMBlogRepository) GetPublishedBySlug(ctx context.Context, slug string, now time.Time) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		Where("slug = ? AND published_at IS NOT NULL AND published_at <= ?", slug, now).
		First(&post).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("blog post %q not found", slug))
		}
		return nil, fmt.Errorf("failed to get blog post %q: %w", slug, err)
	}
	return &post, nil
}

func (r *GORMBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(fmt.Sprintf("slug %q already in use", post.Slug))
		}
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	return nil
}

type GORMSubscriberRepository struct {
	db *gorm.DB
}

func NewGORMSubscriberRepository(db *gorm.DB) *GORMSubscriberRepository {
	return &GORMSubscriberRepository{db: db}
}

func (r *GORMSubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already subscribed")
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}
