// Package auth holds the verified caller identity that handlers thread into
// every service call.
package auth

import "storefront/internal/models"

// Identity is the verified user behind a request.
type Identity struct {
	UserID string
	Role   string
	Email  string
}

// Authenticated reports whether the identity carries a user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}
