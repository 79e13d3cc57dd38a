package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/blog-comments-api/internal/models"
)

const (
	// ModeratorHeader carries the authenticated moderator, set by the
	// auth proxy in front of the admin routes
	ModeratorHeader = "X-Moderator-Email"
	// ModeratorKey is the context key for the moderator email
	ModeratorKey = "moderator_email"
)

// Moderator stores the normalized moderator email for admin handlers.
// A missing header is allowed; approvals then carry no actor. Headers longer
// than an email address can be are ignored.
func Moderator() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.GetHeader(ModeratorHeader)))
		if email != "" && utf8.RuneCountInString(email) <= models.MaxEmailLength {
			c.Set(ModeratorKey, email)
		}
		c.Next()
	}
}

// GetModerator returns the moderator email, or "" when unknown
func GetModerator(c *gin.Context) string {
	return c.GetString(ModeratorKey)
}
