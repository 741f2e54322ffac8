package middleware

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/auth/login/"

// SessionToken returns the raw session token from the Bearer header or,
// failing that, from the named session cookie.
func SessionToken(c *fiber.Ctx, cookieName string) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}
	return c.Cookies(cookieName)
}

// LoginRedirectURL builds the login URL carrying the original path in ?next=.
func LoginRedirectURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext keeps only local absolute paths so ?next= cannot redirect off-site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
