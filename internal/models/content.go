package models

import "time"

// BlogPost is an article shown on the storefront blog.
type BlogPost struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;type:varchar(200);not null"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	Body        string     `json:"body" gorm:"type:text"`
	Author      string     `json:"author" gorm:"type:varchar(100)"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a fire-and-forget message for the email service.
type Notification struct {
	Kind    string            `json:"kind"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Data    map[string]string `json:"data,omitempty"`
}

const (
	NotificationOrderConfirmation = "order_confirmation"
	NotificationNewsletterWelcome = "newsletter_welcome"
)
